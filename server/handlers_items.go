package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-inventory-console/guard"
	"github.com/jrsteele09/go-inventory-console/inventory"
)

type ItemsPageData struct {
	Items []inventory.Item
}

func itemFromForm(r *http.Request) inventory.ItemInput {
	return inventory.ItemInput{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
	}
}

func (s *Server) ItemsPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := consoleFrom(r.Context()).Inventory.Items.List(r.Context())
		if err != nil {
			s.failPage(w, r, err, guard.ScreenItems, "items.html", ItemsPageData{})
			return
		}
		s.render(w, r, http.StatusOK, guard.ScreenItems, "items.html", ItemsPageData{Items: items})
	}
}

func (s *Server) ItemCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		back := guard.RouteItems.String()
		item, err := consoleFrom(r.Context()).Inventory.Items.Create(r.Context(), itemFromForm(r))
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		s.succeed(w, r, fmt.Sprintf("Item %q added to the register.", item.Name), back)
	}
}

func (s *Server) ItemUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		back := guard.RouteItems.String()
		id, err := pathID(r)
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		item, err := consoleFrom(r.Context()).Inventory.Items.Update(r.Context(), id, itemFromForm(r))
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		s.succeed(w, r, fmt.Sprintf("Item %q updated.", item.Name), back)
	}
}

func (s *Server) ItemDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		back := guard.RouteItems.String()
		id, err := pathID(r)
		if err != nil {
			s.failAction(w, r, err, back)
			return
		}
		if err := consoleFrom(r.Context()).Inventory.Items.Delete(r.Context(), id); err != nil {
			s.failAction(w, r, err, back)
			return
		}
		s.succeed(w, r, "Item removed from the register.", back)
	}
}
