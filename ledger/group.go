package ledger

// Group is a named set of accounts in a book. Groups are mirrored between
// connected books by name.
type Group struct {
	book       *Book
	id         string
	name       string
	hidden     bool
	properties map[string]string
}

// NewGroup builds a detached group; call Create to attach it to the book.
func (b *Book) NewGroup(name string) *Group {
	return &Group{
		book:       b,
		name:       name,
		properties: make(map[string]string),
	}
}

// Create attaches the group to its book and assigns its id.
func (g *Group) Create() *Group {
	g.id = g.book.newID()
	g.book.groups = append(g.book.groups, g)
	return g
}

// Group returns the group with the given id or name, or nil.
func (b *Book) Group(idOrName string) *Group {
	for _, g := range b.groups {
		if g.id == idOrName {
			return g
		}
	}
	for _, g := range b.groups {
		if g.name == idOrName {
			return g
		}
	}
	return nil
}

// Groups returns the groups of the book in insertion order.
func (b *Book) Groups() []*Group { return b.groups }

func (g *Group) ID() string   { return g.id }
func (g *Group) Name() string { return g.name }
func (g *Group) Hidden() bool { return g.hidden }

func (g *Group) SetName(name string) *Group {
	g.name = name
	return g
}

func (g *Group) SetHidden(hidden bool) *Group {
	g.hidden = hidden
	return g
}

// Property returns the first non-empty property among the given keys.
func (g *Group) Property(keys ...string) string {
	for _, k := range keys {
		if v := g.properties[k]; v != "" {
			return v
		}
	}
	return ""
}

// SetProperty sets a property; an empty value is ignored.
func (g *Group) SetProperty(key, value string) *Group {
	if value == "" {
		return g
	}
	g.properties[key] = value
	return g
}

// SetProperties replaces all group properties.
func (g *Group) SetProperties(props map[string]string) *Group {
	g.properties = make(map[string]string, len(props))
	for k, v := range props {
		g.properties[k] = v
	}
	return g
}

// Update persists pending group mutations (no-op in memory).
func (g *Group) Update() *Group { return g }

// Remove detaches the group from its book. Accounts keep no reference to
// removed groups.
func (g *Group) Remove() {
	for i, existing := range g.book.groups {
		if existing == g {
			g.book.groups = append(g.book.groups[:i], g.book.groups[i+1:]...)
			break
		}
	}
	for _, a := range g.book.accounts {
		for i, existing := range a.groups {
			if existing == g {
				a.groups = append(a.groups[:i], a.groups[i+1:]...)
				break
			}
		}
	}
}
