package server

// ANSI escapes for the DEV route log
const (
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	ansiBlue    = "\033[34m"
	ansiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
	ansiGray    = "\033[90m"
	ansiReset   = "\033[0m"
)

// methodColors tints the method column; unlisted methods are gray
var methodColors = map[string]string{
	"GET":    ansiGreen,
	"POST":   ansiBlue,
	"PUT":    ansiCyan,
	"DELETE": ansiYellow,
	"PATCH":  ansiMagenta,
}
