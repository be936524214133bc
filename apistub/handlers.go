package apistub

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-inventory-console/internal/utils"
	"github.com/jrsteele09/go-inventory-console/inventory"
	"github.com/jrsteele09/go-inventory-console/users"
	"golang.org/x/crypto/bcrypt"
)

const pageSize = 10

func (s *Stub) routes() {
	s.mux.HandleFunc("POST /api/token/", s.handleToken)
	s.mux.HandleFunc("POST /api/token/refresh/", s.handleRefresh)
	s.mux.HandleFunc("POST /api/users/register/", s.handleRegister)

	s.mux.HandleFunc("GET /api/users/profile/", s.requireAuth(s.handleProfile))
	s.mux.HandleFunc("GET /api/users/all-staff/", s.requireAdmin(s.handleAllStaff))
	s.mux.HandleFunc("PUT /api/users/update/{id}/", s.requireAdmin(s.handleUpdateUser))
	s.mux.HandleFunc("DELETE /api/users/delete/{id}/", s.requireAdmin(s.handleDeleteUser))
	s.mux.HandleFunc("GET /api/users/assign-offices/{id}/", s.requireAdmin(s.handleGetAssignment))
	s.mux.HandleFunc("POST /api/users/assign-offices/{id}/", s.requireAdmin(s.handleAssign))
	s.mux.HandleFunc("POST /api/users/remove-office-assignment/", s.requireAdmin(s.handleRemoveAssignment))

	s.mux.HandleFunc("GET /api/offices/", s.requireAuth(s.handleListOffices))
	s.mux.HandleFunc("POST /api/offices/", s.requireAdmin(s.handleCreateOffice))
	s.mux.HandleFunc("PUT /api/offices/{id}/", s.requireAdmin(s.handleUpdateOffice))
	s.mux.HandleFunc("DELETE /api/offices/{id}/", s.requireAdmin(s.handleDeleteOffice))

	s.mux.HandleFunc("GET /api/item-register/", s.requireAuth(s.handleListItems))
	s.mux.HandleFunc("POST /api/item-register/", s.requireAdmin(s.handleCreateItem))
	s.mux.HandleFunc("PUT /api/item-register/{id}/", s.requireAdmin(s.handleUpdateItem))
	s.mux.HandleFunc("DELETE /api/item-register/{id}/", s.requireAdmin(s.handleDeleteItem))

	s.mux.HandleFunc("GET /api/inventory/", s.requireAuth(s.handleListRecords))
	s.mux.HandleFunc("GET /api/inventory/stats/", s.requireAuth(s.handleStats))
	s.mux.HandleFunc("POST /api/inventory/", s.requireAuth(s.handleCreateRecord))
	s.mux.HandleFunc("PUT /api/inventory/{id}/", s.requireAuth(s.handleUpdateRecord))
	s.mux.HandleFunc("DELETE /api/inventory/{id}/", s.requireAuth(s.handleDeleteRecord))

	s.mux.HandleFunc("GET /api/template/{office}/", s.requireAuth(s.handleTemplate))
	s.mux.HandleFunc("GET /api/export/", s.requireAuth(s.handleExport))
	s.mux.HandleFunc("POST /api/import/", s.requireAuth(s.handleImport))
	s.mux.HandleFunc("GET /api/broadsheet/", s.requireAdmin(s.handleBroadsheet))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "Malformed request body.")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return id, true
}

func (s *Stub) handleToken(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	s.mu.Lock()
	a := s.data.accountByName(in.Username)
	s.mu.Unlock()
	if a == nil || bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(in.Password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}

	s.mu.Lock()
	access, err := s.issueAccess(a)
	s.mu.Unlock()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	refresh, err := s.refreshes.Create(a.ID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Debug().Str("username", a.Username).Msg("issued token pair")
	writeJSON(w, http.StatusOK, map[string]string{"access": access, "refresh": refresh})
}

func (s *Stub) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)
	var in struct {
		Refresh string `json:"refresh"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	userID, ok := s.refreshes.Lookup(in.Refresh)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired", "code": "token_not_valid"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.data.accounts[userID]
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "User not found")
		return
	}
	access, err := s.issueAccess(a)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (s *Stub) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in users.Registration
	if !readJSON(w, r, &in) {
		return
	}
	if in.Username == "" || in.Email == "" || in.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"This field may not be blank."}})
		return
	}
	role := in.Role
	if role == "" {
		role = users.RoleStaff
	}
	// Only an administrator may create another administrator
	if role != users.RoleStaff {
		p, ok := s.authenticate(r)
		if !ok || !p.Role.IsAdmin() {
			writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
	}

	u := users.StaffUser{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Organization: strings.TrimSpace(utils.Value(in.Organization)),
		Role:         role,
	}
	id, err := s.AddUser(u, in.Password)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"A user with that username already exists."}})
		return
	}
	u.ID = id
	writeJSON(w, http.StatusCreated, u)
}

func (s *Stub) handleProfile(w http.ResponseWriter, r *http.Request) {
	p := principalFrom(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.data.accounts[p.UserID]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, users.Profile{
		Username:        a.Username,
		Email:           a.Email,
		Organization:    a.Organization,
		AssignedOffices: s.data.officeRefs(a.Offices),
	})
}

func (s *Stub) handleAllStaff(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]users.StaffUser, 0, len(s.data.accounts))
	for _, a := range s.data.sortedAccounts() {
		list = append(list, s.data.staffView(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": list})
}

func (s *Stub) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in users.StaffUpdate
	if !readJSON(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, found := s.data.accounts[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if other := s.data.accountByName(in.Username); other != nil && other.ID != id {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {"A user with that username already exists."}})
		return
	}
	a.Username, a.FirstName, a.LastName, a.Email, a.Organization = in.Username, in.FirstName, in.LastName, in.Email, in.Organization
	if in.Role != "" {
		a.Role = in.Role
	}
	writeJSON(w, http.StatusOK, s.data.staffView(a))
}

func (s *Stub) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.data.accounts[id]; !found {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	delete(s.data.accounts, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Stub) handleGetAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, found := s.data.accounts[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assigned_offices": s.data.officeRefs(a.Offices)})
}

func (s *Stub) handleAssign(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in struct {
		AssignedOffices []int `json:"assigned_offices"`
	}
	if !readJSON(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, found := s.data.accounts[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	for _, officeID := range in.AssignedOffices {
		if _, exists := s.data.offices[officeID]; !exists {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": fmt.Sprintf("Office %d does not exist.", officeID)})
			return
		}
	}
	for _, officeID := range in.AssignedOffices {
		a.Offices = append(removeID(a.Offices, officeID), officeID)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Offices assigned successfully."})
}

func (s *Stub) handleRemoveAssignment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		OfficeID int `json:"office_id"`
		UserID   int `json:"user_id"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, found := s.data.accounts[in.UserID]
	if !found {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	a.Offices = removeID(a.Offices, in.OfficeID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Office assignment removed."})
}

func (s *Stub) handleListOffices(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.data.sortedOffices())
}

func (s *Stub) handleCreateOffice(w http.ResponseWriter, r *http.Request) {
	var in inventory.OfficeInput
	if !readJSON(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.officeNameTaken(in.Name, 0) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"name": {"office with this name already exists."}})
		return
	}
	o := &inventory.Office{ID: s.data.id(), Name: in.Name, Department: in.Department}
	s.data.offices[o.ID] = o
	writeJSON(w, http.StatusCreated, o)
}

func (s *Stub) handleUpdateOffice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in inventory.OfficeInput
	if !readJSON(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, found := s.data.offices[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if s.data.officeNameTaken(in.Name, id) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"name": {"office with this name already exists."}})
		return
	}
	o.Name, o.Department = in.Name, in.Department
	writeJSON(w, http.StatusOK, o)
}

func (s *Stub) handleDeleteOffice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.data.offices[id]; !found {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	delete(s.data.offices, id)
	for _, a := range s.data.accounts {
		a.Offices = removeID(a.Offices, id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Stub) handleListItems(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.data.sortedItems())
}

func (s *Stub) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var in inventory.ItemInput
	if !readJSON(w, r, &in) {
		return
	}
	if in.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"name": {"This field may not be blank."}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it := &inventory.Item{ItemID: s.data.id(), Name: in.Name, Description: in.Description}
	s.data.items[it.ItemID] = it
	writeJSON(w, http.StatusCreated, it)
}

func (s *Stub) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in inventory.ItemInput
	if !readJSON(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it, found := s.data.items[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	it.Name, it.Description = in.Name, in.Description
	writeJSON(w, http.StatusOK, it)
}

func (s *Stub) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.data.items[id]; !found {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	delete(s.data.items, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Stub) handleListRecords(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	s.mu.Lock()
	all := s.data.sortedRecords()
	s.mu.Unlock()

	start := (page - 1) * pageSize
	if start > len(all) {
		writeDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}
	end := min(start+pageSize, len(all))

	out := inventory.Page[inventory.Record]{Results: all[start:end], Count: len(all)}
	base := "http://" + r.Host + r.URL.Path
	if end < len(all) {
		out.Next = fmt.Sprintf("%s?page=%d", base, page+1)
	}
	if page > 1 {
		out.Previous = fmt.Sprintf("%s?page=%d", base, page-1)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Stub) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.data.stats())
}

func (s *Stub) validRecord(w http.ResponseWriter, in inventory.RecordInput) bool {
	if _, ok := s.data.offices[in.OfficeID]; !ok {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"office_id": {"Invalid office."}})
		return false
	}
	if _, ok := s.data.items[in.ItemID]; !ok {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"item_id": {"Invalid item."}})
		return false
	}
	if in.Quantity < 0 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"quantity": {"Ensure this value is greater than or equal to 0."}})
		return false
	}
	return true
}

func (s *Stub) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var in inventory.RecordInput
	if !readJSON(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.validRecord(w, in) {
		return
	}
	rec := &inventory.Record{ID: s.data.id(), OfficeID: in.OfficeID, ItemID: in.ItemID, Quantity: in.Quantity, Remarks: in.Remarks}
	s.data.records[rec.ID] = rec
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Stub) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in inventory.RecordInput
	if !readJSON(w, r, &in) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, found := s.data.records[id]
	if !found {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	if !s.validRecord(w, in) {
		return
	}
	rec.OfficeID, rec.ItemID, rec.Quantity, rec.Remarks = in.OfficeID, in.ItemID, in.Quantity, in.Remarks
	writeJSON(w, http.StatusOK, rec)
}

func (s *Stub) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.data.records[id]; !found {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	delete(s.data.records, id)
	w.WriteHeader(http.StatusNoContent)
}

// spreadsheets are not generated here; the files carry a csv body so tests can inspect them
func writeSheet(w http.ResponseWriter, name string, rows [][]string) {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, ","))
		b.WriteByte('\n')
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	_, _ = io.WriteString(w, b.String())
}

func (s *Stub) officeFromQuery(w http.ResponseWriter, raw string) (*inventory.Office, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "office_id is required.")
		return nil, false
	}
	o, ok := s.data.offices[id]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Office not found.")
		return nil, false
	}
	return o, true
}

func (s *Stub) handleTemplate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.officeFromQuery(w, r.PathValue("office"))
	if !ok {
		return
	}
	rows := [][]string{{"item_id", "name", "quantity", "remarks"}}
	for _, it := range s.data.sortedItems() {
		rows = append(rows, []string{strconv.Itoa(it.ItemID), it.Name, "", ""})
	}
	writeSheet(w, fmt.Sprintf("office_%d_template.xlsx", o.ID), rows)
}

func (s *Stub) handleExport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.officeFromQuery(w, r.URL.Query().Get("office_id"))
	if !ok {
		return
	}
	rows := [][]string{{"item_id", "name", "quantity", "remarks"}}
	for _, rec := range s.data.sortedRecords() {
		if rec.OfficeID == o.ID {
			rows = append(rows, []string{strconv.Itoa(rec.ItemID), rec.ItemName, strconv.Itoa(rec.Quantity), rec.Remarks})
		}
	}
	writeSheet(w, fmt.Sprintf("office_%d_inventory.xlsx", o.ID), rows)
}

// handleImport reads item_id,name,quantity,remarks rows and upserts the office's records
func (s *Stub) handleImport(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "No file was submitted.")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "The submitted file could not be read.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.officeFromQuery(w, r.URL.Query().Get("office_id"))
	if !ok {
		return
	}

	imported := 0
	for i, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		fields := strings.Split(strings.TrimSpace(line), ",")
		if i == 0 || len(fields) < 3 {
			continue
		}
		itemID, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		qty, err := strconv.Atoi(fields[2])
		if err != nil {
			continue
		}
		if _, exists := s.data.items[itemID]; !exists {
			continue
		}
		remarks := ""
		if len(fields) > 3 {
			remarks = fields[3]
		}
		rec := &inventory.Record{ID: s.data.id(), OfficeID: o.ID, ItemID: itemID, Quantity: qty, Remarks: remarks}
		for _, existing := range s.data.records {
			if existing.OfficeID == o.ID && existing.ItemID == itemID {
				rec.ID = existing.ID
			}
		}
		s.data.records[rec.ID] = rec
		imported++
	}
	writeJSON(w, http.StatusOK, inventory.ImportResult{
		Message:  fmt.Sprintf("Imported %s.", header.Filename),
		Imported: imported,
	})
}

func (s *Stub) handleBroadsheet(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "year is required.")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := [][]string{{"office", "item", "quantity"}}
	for _, rec := range s.data.sortedRecords() {
		rows = append(rows, []string{rec.OfficeName, rec.ItemName, strconv.Itoa(rec.Quantity)})
	}
	writeSheet(w, fmt.Sprintf("broadsheet_%d.xlsx", year), rows)
}
