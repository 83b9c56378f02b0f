package dremio

import (
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

const pathCatalog = "/api/v3/catalog"

// CatalogItem is a catalog node as returned by the v3 API. The API is not
// uniform: type information appears under type, entityType, datasetType or a
// nested dataset object depending on the endpoint, so all variants are kept.
type CatalogItem struct {
	ID            string        `json:"id"`
	Path          []string      `json:"path"`
	Type          string        `json:"type"`
	EntityType    string        `json:"entityType"`
	DatasetType   string        `json:"datasetType"`
	ContainerType string        `json:"containerType"`
	CreatedAt     string        `json:"createdAt"`
	ModifiedAt    string        `json:"modifiedAt"`
	SQL           string        `json:"sql"`
	Children      []CatalogItem `json:"children"`

	Dataset *struct {
		Type        string `json:"type"`
		DatasetType string `json:"datasetType"`
		SQL         string `json:"sql"`
	} `json:"dataset"`
	ViewInfo *struct {
		SQL string `json:"sql"`
	} `json:"view"`
}

// catalogPage covers both response shapes: the root returns "data", the
// children endpoint returns "children".
type catalogPage struct {
	Data     []CatalogItem `json:"data"`
	Children []CatalogItem `json:"children"`
}

// containerTypes are the node kinds whose children are worth descending into.
var containerTypes = map[string]bool{
	"SOURCE":    true,
	"SPACE":     true,
	"HOME":      true,
	"CONTAINER": true,
	"FOLDER":    true,
}

// WalkCatalog does a breadth-first walk of the visible catalog and calls
// visit for every node. Errors on individual branches are logged and skipped
// so one unreadable source does not abort the walk.
func (c *Client) WalkCatalog(ctx context.Context, visit func(CatalogItem)) error {
	var root catalogPage
	if err := c.doJSON(ctx, "GET", pathCatalog, nil, &root); err != nil {
		return err
	}

	queue := root.Data
	if len(queue) == 0 {
		queue = root.Children
	}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		visit(node)

		t := strings.ToUpper(firstNonEmpty(node.Type, node.EntityType))
		if node.ID == "" || !containerTypes[t] {
			continue
		}
		kids, err := c.children(ctx, node.ID)
		if err != nil {
			log.Debug().Err(err).Str("action", "catalog_walk").Str("id", node.ID).
				Msg("skipping branch")
			continue
		}
		queue = append(queue, kids...)
	}
	return nil
}

// children fetches /api/v3/catalog/{id}/children, falling back to the inline
// children of the entity itself when the endpoint rejects the node.
func (c *Client) children(ctx context.Context, id string) ([]CatalogItem, error) {
	var page catalogPage
	err := c.doJSON(ctx, "GET", pathCatalog+"/"+url.PathEscape(id)+"/children", nil, &page)
	if err == nil {
		if len(page.Children) > 0 {
			return page.Children, nil
		}
		return page.Data, nil
	}

	// Some entities inline children.
	var ent CatalogItem
	if entErr := c.doJSON(ctx, "GET", pathCatalog+"/"+url.PathEscape(id), nil, &ent); entErr == nil {
		return ent.Children, nil
	}
	return nil, err
}

// View is a virtual dataset, normalized across API shapes.
type View struct {
	ID         string   `json:"id"`
	Path       []string `json:"path"`
	PathStr    string   `json:"path_str"`
	Type       string   `json:"type"`
	CreatedAt  string   `json:"createdAt,omitempty"`
	ModifiedAt string   `json:"modifiedAt,omitempty"`
	SQL        string   `json:"sql,omitempty"`
}

// isView recognizes virtual datasets across the shapes the API emits.
func isView(it CatalogItem) bool {
	if strings.ToUpper(it.Type) == "VIRTUAL_DATASET" {
		return true
	}
	t := strings.ToUpper(firstNonEmpty(it.Type, it.EntityType))
	ds := strings.ToUpper(firstNonEmpty(it.DatasetType, it.ContainerType))
	if t == "DATASET" && ds == "VIRTUAL_DATASET" {
		return true
	}
	if it.Dataset != nil {
		if strings.ToUpper(firstNonEmpty(it.Dataset.Type, it.Dataset.DatasetType)) == "VIRTUAL_DATASET" {
			return true
		}
	}
	return false
}

// ListViews walks the catalog and returns every visible view.
func (c *Client) ListViews(ctx context.Context) ([]View, error) {
	var out []View
	err := c.WalkCatalog(ctx, func(it CatalogItem) {
		if !isView(it) {
			return
		}

		sql := it.SQL
		if sql == "" && it.ViewInfo != nil {
			sql = it.ViewInfo.SQL
		}
		if sql == "" && it.Dataset != nil {
			sql = it.Dataset.SQL
		}

		vtype := firstNonEmpty(it.Type, it.DatasetType)
		if vtype == "" {
			vtype = "VIRTUAL_DATASET"
		}

		out = append(out, View{
			ID:         it.ID,
			Path:       it.Path,
			PathStr:    strings.Join(it.Path, "."),
			Type:       vtype,
			CreatedAt:  it.CreatedAt,
			ModifiedAt: it.ModifiedAt,
			SQL:        sql,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
