// Package panel holds the editor-independent logic of the entity variables
// panel: the list projection and the edit session.
package panel

import (
	"fmt"

	"github.com/dopejs/tmplvars/internal/catalog"
	"github.com/dopejs/tmplvars/internal/template"
)

// Item is one row of the variable list. The trailing add row has Add set and
// nothing else.
type Item struct {
	InternalID  string                `json:"internalId,omitempty"`
	Name        string                `json:"name,omitempty"`
	Icon        string                `json:"icon,omitempty"`
	TooltipText string                `json:"tooltipText,omitempty"`
	IDLabel     string                `json:"idLabel,omitempty"`
	Description string                `json:"description,omitempty"`
	Type        template.VariableType `json:"type,omitempty"`
	Add         bool                  `json:"add,omitempty"`
}

// List is the projection of one entity's variables.
type List struct {
	EntityInternalID string
	Entity           template.Entity
	Items            []Item
	// Dangling holds internal ids listed by the entity but missing from the catalog.
	Dangling []string
	// Current is every variable in scope, for the dialog's uniqueness checks.
	Current []catalog.CurrentVariable
}

// Variables returns the items without the trailing add row.
func (l List) Variables() []Item {
	if n := len(l.Items); n > 0 && l.Items[n-1].Add {
		return l.Items[:n-1]
	}
	return l.Items
}

// BuildList projects entityInternalID's variables in order and appends the
// add row. Dangling ids are skipped and reported. A variable of an unknown
// type fails the whole projection with template.ErrUnhandledVariant.
func BuildList(t *template.Template, entityInternalID string) (List, error) {
	e := t.EntitiesByInternalID[entityInternalID]
	if e == nil {
		return List{}, fmt.Errorf("%w: %s", template.ErrEntityNotFound, entityInternalID)
	}
	l := List{
		EntityInternalID: entityInternalID,
		Entity:           *e,
		Items:            make([]Item, 0, len(e.VariableInternalIDs)+1),
		Current:          catalog.CurrentVariables(t),
	}
	for _, id := range e.VariableInternalIDs {
		v := t.VariablesByInternalID[id]
		if v == nil {
			l.Dangling = append(l.Dangling, id)
			continue
		}
		icon, err := template.Icon(v.Type)
		if err != nil {
			return List{}, fmt.Errorf("variable %s: %w", id, err)
		}
		l.Items = append(l.Items, Item{
			InternalID:  id,
			Name:        template.DisplayName(*v),
			Icon:        icon,
			TooltipText: string(v.Type),
			IDLabel:     v.ID,
			Description: v.Description,
			Type:        v.Type,
		})
	}
	l.Items = append(l.Items, Item{Add: true})
	return l, nil
}
