package remote

import (
	"git.home.luguber.info/inful/menusync/internal/model"
)

// toMenu converts a wire menu into the flat, depth-first model form.
func toMenu(blogID int64, dto menuDTO) *model.Menu {
	m := &model.Menu{
		ID:          int64(dto.ID),
		LocalID:     model.MenuLocalID(blogID, int64(dto.ID)),
		BlogID:      blogID,
		Name:        dto.Name,
		Description: dto.Description,
		Locations:   append([]string(nil), dto.Locations...),
		State:       model.MenuStateSaved,
	}
	flattenItems(blogID, dto.Items, "", &m.Items)
	return m
}

func flattenItems(blogID int64, items []menuItemDTO, parent string, out *[]model.MenuItem) {
	for _, dto := range items {
		localID := model.NewItemLocalID()
		if dto.ID > 0 {
			localID = model.ItemLocalID(blogID, int64(dto.ID))
		}
		*out = append(*out, model.MenuItem{
			ID:            int64(dto.ID),
			LocalID:       localID,
			ParentLocalID: parent,
			Position:      len(*out),
			ContentID:     int64(dto.ContentID),
			Type:          dto.Type,
			TypeFamily:    dto.TypeFamily,
			TypeLabel:     dto.TypeLabel,
			URL:           dto.URL,
			Name:          dto.Name,
			LinkTarget:    dto.LinkTarget,
			LinkTitle:     dto.LinkTitle,
			Description:   dto.Description,
			Classes:       append([]string(nil), dto.Classes...),
		})
		flattenItems(blogID, dto.Items, localID, out)
	}
}

// nestItems rebuilds the wire tree from flat items. Every item is sent
// exactly once: items whose parent is unknown, and items only reachable
// through a parent cycle, are attached at the root. Items without a
// LocalID, or sharing one with an earlier item, cannot be parents.
func nestItems(items []model.MenuItem) []menuItemDTO {
	byLocalID := make(map[string]int, len(items))
	for i, it := range items {
		if it.LocalID == "" {
			continue
		}
		if _, dup := byLocalID[it.LocalID]; !dup {
			byLocalID[it.LocalID] = i
		}
	}

	const root = -1
	children := make(map[int][]int)
	for i, it := range items {
		parent := root
		if p, ok := byLocalID[it.ParentLocalID]; ok && it.ParentLocalID != "" && p != i {
			parent = p
		}
		children[parent] = append(children[parent], i)
	}

	visited := make([]bool, len(items))
	var build func(parent int) []menuItemDTO
	build = func(parent int) []menuItemDTO {
		var out []menuItemDTO
		for _, i := range children[parent] {
			if visited[i] {
				continue
			}
			out = append(out, subtree(items, i, visited, build))
		}
		return out
	}

	out := build(root)
	for i := range items {
		if !visited[i] {
			out = append(out, subtree(items, i, visited, build))
		}
	}
	return out
}

func subtree(items []model.MenuItem, i int, visited []bool, build func(int) []menuItemDTO) menuItemDTO {
	visited[i] = true
	it := items[i]
	dto := menuItemDTO{
		ID:          ID(it.ID),
		ContentID:   ID(it.ContentID),
		Type:        it.Type,
		TypeFamily:  it.TypeFamily,
		TypeLabel:   it.TypeLabel,
		URL:         it.URL,
		Name:        it.Name,
		LinkTarget:  it.LinkTarget,
		LinkTitle:   it.LinkTitle,
		Description: it.Description,
		Classes:     it.Classes,
	}
	dto.Items = build(i)
	return dto
}

// toLocations converts wire locations and derives the assigned menu of each
// location from the menus' location lists.
func toLocations(blogID int64, dtos []locationDTO, menus []*model.Menu) []model.MenuLocation {
	assigned := make(map[string]int64)
	for _, m := range menus {
		for _, name := range m.Locations {
			assigned[name] = m.ID
		}
	}
	out := make([]model.MenuLocation, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, model.MenuLocation{
			BlogID:       blogID,
			Name:         dto.Name,
			Description:  dto.Description,
			DefaultState: dto.DefaultState,
			MenuID:       assigned[dto.Name],
		})
	}
	return out
}
