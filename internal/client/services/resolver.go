package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/panelkeeper/internal/client/client"
	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
)

// Resolution is the outcome of panel resolution: either a selected Panel or
// SelectionRequired with the full list to choose from.
type Resolution struct {
	Panel             *models.PanelSummary
	SelectionRequired bool
	Panels            []models.PanelSummary
}

// Resolver picks the panel to log in to from the account's directory.
type Resolver struct {
	client client.Client
}

func NewResolver(c client.Client) *Resolver {
	return &Resolver{client: c}
}

// Resolve fetches the panel list and selects a panel:
//   - a single panel is always selected;
//   - otherwise the entry matching lastPanelID is selected unless
//     forceSelect is set;
//   - otherwise the caller must ask the user (SelectionRequired).
func (r *Resolver) Resolve(ctx context.Context, ep models.Endpoint, lastPanelID string, forceSelect bool) (Resolution, error) {
	panels, err := r.client.Panels(ctx, ep)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
	}
	return SelectPanel(panels, lastPanelID, forceSelect)
}

// SelectPanel applies the selection rules of Resolve to an already fetched
// list.
func SelectPanel(panels []models.PanelSummary, lastPanelID string, forceSelect bool) (Resolution, error) {
	if len(panels) == 0 {
		return Resolution{}, fmt.Errorf("%w: no panels on account", ErrDirectoryUnavailable)
	}

	res := Resolution{Panels: panels}

	if len(panels) == 1 {
		p := panels[0]
		res.Panel = &p
		return res, nil
	}

	if id, ok := models.ParsePanelID(lastPanelID); ok && !forceSelect {
		for i := range panels {
			if panels[i].ID == id {
				p := panels[i]
				res.Panel = &p
				return res, nil
			}
		}
	}

	res.SelectionRequired = true
	return res, nil
}
