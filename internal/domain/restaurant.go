package domain

// Restaurant is the read-only slice of restaurant data checkout needs.
type Restaurant struct {
	ID            string
	Name          string
	DeliveryPrice float64
	MenuItems     []MenuItem
}

type MenuItem struct {
	ID    string
	Name  string
	Price float64
}

func (r Restaurant) FindMenuItem(id string) (MenuItem, bool) {
	for _, item := range r.MenuItems {
		if item.ID == id {
			return item, true
		}
	}
	return MenuItem{}, false
}
