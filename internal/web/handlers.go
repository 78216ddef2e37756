package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/daap14/imsweb/internal/api/validation"
	"github.com/daap14/imsweb/internal/backend"
	"github.com/daap14/imsweb/internal/session"
)

const (
	inventoryPath = "/dashboard/inventory"
	usersPath     = "/dashboard/user"
)

type loginData struct {
	Username string
	Error    string
}

type itemFormValues struct {
	Name        string
	Description string
	Quantity    string
	Price       string
}

type inventoryData struct {
	Items        []backend.Item
	LoadError    string
	Edit         *backend.Item
	Form         itemFormValues
	QuantityOnly bool
	Query        string
}

type userFormValues struct {
	Username string
	Role     string
}

type usersData struct {
	Users     []backend.User
	LoadError string
	Edit      *backend.User
	Form      userFormValues
	CanManage bool
}

func (p *Pages) home(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, http.StatusOK, "home", view{Title: "Welcome"})
}

func (p *Pages) loginForm(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	p.render(w, r, http.StatusOK, "login", view{Title: "Login", Data: loginData{}})
}

func (p *Pages) login(w http.ResponseWriter, r *http.Request) {
	creds, errs := validation.ParseCredentials(r.PostFormValue("username"), r.PostFormValue("password"))
	if len(errs) > 0 {
		p.render(w, r, http.StatusUnprocessableEntity, "login", view{
			Title: "Login",
			Data:  loginData{Username: creds.Username, Error: validation.Summary(errs)},
		})
		return
	}

	res := p.actions.Login(r.Context(), w, creds)
	if !res.Success {
		p.render(w, r, http.StatusUnauthorized, "login", view{
			Title: "Login",
			Data:  loginData{Username: creds.Username, Error: res.Message},
		})
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (p *Pages) logout(w http.ResponseWriter, r *http.Request) {
	p.actions.Logout(r.Context(), w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (p *Pages) profile(w http.ResponseWriter, r *http.Request) {
	p.render(w, r, http.StatusOK, "dashboard", view{Title: "Profile", Section: "profile"})
}

// --- Inventory ---

func (p *Pages) inventory(w http.ResponseWriter, r *http.Request) {
	data := inventoryData{Query: strings.TrimSpace(r.URL.Query().Get("q"))}

	res := p.actions.ListItems(r.Context())
	if !res.Success {
		data.LoadError = res.Message
	} else {
		data.Items = filterItems(res.Data, data.Query)
		if id, ok := validation.ParseID(r.URL.Query().Get("edit")); ok {
			data.Edit = findItem(res.Data, id)
		}
	}

	if data.Edit != nil {
		data.Form = itemFormValues{
			Name:        data.Edit.Name,
			Description: data.Edit.Description,
			Quantity:    strconv.Itoa(data.Edit.Quantity),
			Price:       strconv.FormatFloat(data.Edit.Price, 'f', -1, 64),
		}
		claims := session.FromContext(r.Context()).Claims
		data.QuantityOnly = claims.IsUser()
	}

	p.render(w, r, http.StatusOK, "inventory", view{Title: "Inventory", Section: "inventory", Data: data})
}

func (p *Pages) addItem(w http.ResponseWriter, r *http.Request) {
	in, errs := validation.ParseItem(itemForm(r))
	if len(errs) > 0 {
		p.redirectWith(w, r, inventoryPath, false, validation.Summary(errs))
		return
	}
	res := p.actions.AddItem(r.Context(), in)
	p.redirectWith(w, r, inventoryPath, res.Success, res.Message)
}

func (p *Pages) updateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := validation.ParseID(chi.URLParam(r, "id"))
	if !ok {
		p.redirectWith(w, r, inventoryPath, false, "Invalid item id.")
		return
	}
	editPath := inventoryPath + "?edit=" + strconv.FormatInt(id, 10)

	in, errs := validation.ParseItem(itemForm(r))
	if len(errs) > 0 {
		p.redirectWith(w, r, editPath, false, validation.Summary(errs))
		return
	}
	res := p.actions.UpdateItem(r.Context(), id, in)
	if !res.Success {
		p.redirectWith(w, r, editPath, false, res.Message)
		return
	}
	p.redirectWith(w, r, inventoryPath, true, res.Message)
}

func (p *Pages) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := validation.ParseID(chi.URLParam(r, "id"))
	if !ok {
		p.redirectWith(w, r, inventoryPath, false, "Invalid item id.")
		return
	}
	res := p.actions.DeleteItem(r.Context(), id)
	p.redirectWith(w, r, inventoryPath, res.Success, res.Message)
}

func itemForm(r *http.Request) validation.ItemForm {
	return validation.ItemForm{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		Quantity:    r.PostFormValue("quantity"),
		Price:       r.PostFormValue("price"),
	}
}

func filterItems(items []backend.Item, query string) []backend.Item {
	if query == "" {
		return items
	}
	q := strings.ToLower(query)
	var out []backend.Item
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), q) || strings.Contains(strings.ToLower(it.Description), q) {
			out = append(out, it)
		}
	}
	return out
}

func findItem(items []backend.Item, id int64) *backend.Item {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

// --- Users ---

func (p *Pages) users(w http.ResponseWriter, r *http.Request) {
	data := usersData{
		Form:      userFormValues{Role: string(session.RoleUser)},
		CanManage: session.FromContext(r.Context()).Claims.IsAdmin(),
	}

	res := p.actions.ListUsers(r.Context())
	if !res.Success {
		data.LoadError = res.Message
	} else {
		data.Users = res.Data
		if id, ok := validation.ParseID(r.URL.Query().Get("edit")); ok {
			data.Edit = findUser(res.Data, id)
		}
	}

	if data.Edit != nil {
		data.Form = userFormValues{Username: data.Edit.Username, Role: data.Edit.Role}
	}

	p.render(w, r, http.StatusOK, "users", view{Title: "Users", Section: "users", Data: data})
}

func (p *Pages) addUser(w http.ResponseWriter, r *http.Request) {
	in, errs := validation.ParseUser(userForm(r, false))
	if len(errs) > 0 {
		p.redirectWith(w, r, usersPath, false, validation.Summary(errs))
		return
	}
	res := p.actions.AddUser(r.Context(), in)
	p.redirectWith(w, r, usersPath, res.Success, res.Message)
}

func (p *Pages) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := validation.ParseID(chi.URLParam(r, "id"))
	if !ok {
		p.redirectWith(w, r, usersPath, false, "Invalid user id.")
		return
	}
	editPath := usersPath + "?edit=" + strconv.FormatInt(id, 10)

	in, errs := validation.ParseUser(userForm(r, true))
	if len(errs) > 0 {
		p.redirectWith(w, r, editPath, false, validation.Summary(errs))
		return
	}
	res := p.actions.UpdateUser(r.Context(), id, in)
	if !res.Success {
		p.redirectWith(w, r, editPath, false, res.Message)
		return
	}
	p.redirectWith(w, r, usersPath, true, res.Message)
}

func (p *Pages) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := validation.ParseID(chi.URLParam(r, "id"))
	if !ok {
		p.redirectWith(w, r, usersPath, false, "Invalid user id.")
		return
	}
	res := p.actions.DeleteUser(r.Context(), id)
	p.redirectWith(w, r, usersPath, res.Success, res.Message)
}

func userForm(r *http.Request, existing bool) validation.UserForm {
	return validation.UserForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
		Role:     r.PostFormValue("role"),
		Existing: existing,
	}
}

func findUser(users []backend.User, id int64) *backend.User {
	for i := range users {
		if users[i].ID == id {
			return &users[i]
		}
	}
	return nil
}
