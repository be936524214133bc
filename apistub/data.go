package apistub

import (
	"slices"
	"sort"

	"github.com/jrsteele09/go-inventory-console/inventory"
	"github.com/jrsteele09/go-inventory-console/users"
)

type account struct {
	users.StaffUser
	PasswordHash []byte
	Offices      []int
}

// data is the in-memory backend state. Callers hold Stub.mu.
type data struct {
	accounts map[int]*account
	offices  map[int]*inventory.Office
	items    map[int]*inventory.Item
	records  map[int]*inventory.Record
	nextID   int
}

func newData() *data {
	return &data{
		accounts: make(map[int]*account),
		offices:  make(map[int]*inventory.Office),
		items:    make(map[int]*inventory.Item),
		records:  make(map[int]*inventory.Record),
		nextID:   1,
	}
}

func (d *data) id() int {
	id := d.nextID
	d.nextID++
	return id
}

func (d *data) accountByName(username string) *account {
	for _, a := range d.accounts {
		if a.Username == username {
			return a
		}
	}
	return nil
}

func (d *data) officeRefs(ids []int) []users.OfficeRef {
	refs := make([]users.OfficeRef, 0, len(ids))
	for _, id := range ids {
		ref := users.OfficeRef{ID: id}
		if o, ok := d.offices[id]; ok {
			ref.Name = o.Name
		}
		refs = append(refs, ref)
	}
	return refs
}

func (d *data) staffView(a *account) users.StaffUser {
	u := a.StaffUser
	u.AssignedOffices = d.officeRefs(a.Offices)
	return u
}

func (d *data) sortedAccounts() []*account {
	out := make([]*account, 0, len(d.accounts))
	for _, a := range d.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *data) sortedOffices() []inventory.Office {
	out := make([]inventory.Office, 0, len(d.offices))
	for _, o := range d.offices {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *data) sortedItems() []inventory.Item {
	out := make([]inventory.Item, 0, len(d.items))
	for _, i := range d.items {
		out = append(out, *i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

func (d *data) sortedRecords() []inventory.Record {
	out := make([]inventory.Record, 0, len(d.records))
	for _, r := range d.records {
		rec := *r
		if o, ok := d.offices[rec.OfficeID]; ok {
			rec.OfficeName = o.Name
		}
		if i, ok := d.items[rec.ItemID]; ok {
			rec.ItemName = i.Name
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *data) officeNameTaken(name string, except int) bool {
	for _, o := range d.offices {
		if o.ID != except && o.Name == name {
			return true
		}
	}
	return false
}

func (d *data) stats() inventory.Stats {
	var st inventory.Stats
	for _, rec := range d.sortedRecords() {
		st.TotalItems += rec.Quantity
		item := &inventory.StatItem{Name: rec.ItemName, Quantity: rec.Quantity}
		if st.LargestItem == nil || rec.Quantity > st.LargestItem.Quantity {
			st.LargestItem = item
		}
		if st.SmallestItem == nil || rec.Quantity < st.SmallestItem.Quantity {
			st.SmallestItem = item
		}
	}
	return st
}

func removeID(ids []int, id int) []int {
	return slices.DeleteFunc(slices.Clone(ids), func(v int) bool { return v == id })
}
