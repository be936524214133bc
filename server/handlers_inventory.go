package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-inventory-console/guard"
	apperrors "github.com/jrsteele09/go-inventory-console/internal/errors"
	"github.com/jrsteele09/go-inventory-console/inventory"
)

type InventoryPageData struct {
	Records inventory.Page[inventory.Record]
	Offices []inventory.Office
	Items   []inventory.Item
	Page    int
}

func recordFromForm(r *http.Request) (inventory.RecordInput, error) {
	officeID, err := formInt(r, "office_id", "office")
	if err != nil {
		return inventory.RecordInput{}, err
	}
	itemID, err := formInt(r, "item_id", "item")
	if err != nil {
		return inventory.RecordInput{}, err
	}
	quantity, err := formInt(r, "quantity", "quantity")
	if err != nil {
		return inventory.RecordInput{}, err
	}
	return inventory.RecordInput{
		OfficeID: officeID,
		ItemID:   itemID,
		Quantity: quantity,
		Remarks:  strings.TrimSpace(r.PostFormValue("remarks")),
	}, nil
}

func (s *Server) InventoryPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc := consoleFrom(r.Context()).Inventory
		page := InventoryPageData{Page: pageParam(r)}

		records, err := svc.Records.List(r.Context(), page.Page)
		if err != nil {
			s.failPage(w, r, err, guard.ScreenInventory, "inventory.html", page)
			return
		}
		page.Records = *records

		// The pickers are a convenience; the table renders without them
		if offices, err := svc.Offices.List(r.Context()); err == nil {
			page.Offices = offices
		} else if s.interrupt(w, r, err) {
			return
		}
		if items, err := svc.Items.List(r.Context()); err == nil {
			page.Items = items
		} else if s.interrupt(w, r, err) {
			return
		}
		s.render(w, r, http.StatusOK, guard.ScreenInventory, "inventory.html", page)
	}
}

func (s *Server) RecordCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		back := guard.RouteInventory.String()
		in, err := recordFromForm(r)
		if err == nil {
			_, err = consoleFrom(r.Context()).Inventory.Records.Create(r.Context(), in)
		}
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		s.succeed(w, r, "Inventory record added.", back)
	}
}

func (s *Server) RecordUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		back := guard.RouteInventory.String()
		id, err := pathID(r)
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		in, err := recordFromForm(r)
		if err == nil {
			_, err = consoleFrom(r.Context()).Inventory.Records.Update(r.Context(), id, in)
		}
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		s.succeed(w, r, "Inventory record updated.", back)
	}
}

func (s *Server) RecordDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		back := guard.RouteInventory.String()
		id, err := pathID(r)
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		if err := consoleFrom(r.Context()).Inventory.Records.Delete(r.Context(), id); err != nil {
			s.failAction(w, r, err, back)
			return
		}
		s.succeed(w, r, "Inventory record deleted.", back)
	}
}

type ToolsPageData struct {
	Offices []inventory.Office
}

func (s *Server) ToolsPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offices, err := consoleFrom(r.Context()).Inventory.Offices.List(r.Context())
		if err != nil {
			s.failPage(w, r, err, guard.ScreenInventoryTools, "tools.html", ToolsPageData{})
			return
		}
		s.render(w, r, http.StatusOK, guard.ScreenInventoryTools, "tools.html", ToolsPageData{Offices: offices})
	}
}

func sendFile(w http.ResponseWriter, f *inventory.File) {
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	_, _ = w.Write(f.Data)
}

func (s *Server) TemplateDownloadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		back := guard.RouteInventoryTools.String()
		officeID, err := formInt(r, "office_id", "office")
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		f, err := consoleFrom(r.Context()).Inventory.Files.Template(r.Context(), officeID)
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		sendFile(w, f)
	}
}

func (s *Server) ExportDownloadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		back := guard.RouteInventoryTools.String()
		officeID, err := formInt(r, "office_id", "office")
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		f, err := consoleFrom(r.Context()).Inventory.Files.Export(r.Context(), officeID)
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		sendFile(w, f)
	}
}

// ImportHandler uploads a filled template from the multipart "file" field
func (s *Server) ImportHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		back := guard.RouteInventoryTools.String()
		r.Body = http.MaxBytesReader(w, r.Body, defaultMaxUploadSize)
		if err := r.ParseMultipartForm(defaultMaxUploadSize); err != nil {
			s.failAction(w, r, fmt.Errorf("%w: the upload could not be read", apperrors.ErrValidation), back)
			return
		}

		officeID, err := formInt(r, "office_id", "office")
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			s.failAction(w, r, fmt.Errorf("%w: choose a file to import", apperrors.ErrValidation), back)
			return
		}
		defer file.Close()

		res, err := consoleFrom(r.Context()).Inventory.Files.Import(r.Context(), officeID, header.Filename, file)
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		message := res.Message
		if message == "" {
			message = "Import complete."
		}
		if res.Imported > 0 {
			message = fmt.Sprintf("%s %d rows imported.", message, res.Imported)
		}
		s.succeed(w, r, message, back)
	}
}

type BroadsheetPageData struct {
	Year  int
	Years []int
}

func (s *Server) BroadsheetPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := s.now().Year()
		page := BroadsheetPageData{Year: current}
		for y := current; y > current-5; y-- {
			page.Years = append(page.Years, y)
		}
		s.render(w, r, http.StatusOK, guard.ScreenBroadsheet, "broadsheet.html", page)
	}
}

func (s *Server) BroadsheetDownloadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		back := guard.RouteBroadsheet.String()
		year := s.now().Year()
		if r.URL.Query().Has("year") {
			var err error
			if year, err = formInt(r, "year", "year"); err != nil {
				s.failAction(w, r, err, back)
				return
			}
		}
		f, err := consoleFrom(r.Context()).Inventory.Files.Broadsheet(r.Context(), year)
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		sendFile(w, f)
	}
}
