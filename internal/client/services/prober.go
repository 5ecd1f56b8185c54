package services

import (
	"context"

	"github.com/dmitrijs2005/panelkeeper/internal/client/client"
	"github.com/dmitrijs2005/panelkeeper/internal/client/models"
	"github.com/dmitrijs2005/panelkeeper/internal/logging"
)

// Prober classifies a panel's reachability and upgrade needs with a single
// ping. It never retries.
type Prober struct {
	client client.Client
	log    logging.Logger
}

func NewProber(c client.Client, log logging.Logger) *Prober {
	return &Prober{client: c, log: log}
}

func (p *Prober) Probe(ctx context.Context, ep models.Endpoint, panel models.PanelSummary) models.PanelStatus {
	resp, err := p.client.Ping(ctx, ep, panel.ID)
	if err != nil {
		p.log.Warn(ctx, "panel ping failed", "panel_id", panel.ID, "error", err)
		return models.PanelStatus{}
	}
	if resp.Response != models.ResponseResult {
		p.log.Warn(ctx, "panel ping unsuccessful", "panel_id", panel.ID, "response", resp.Response)
		return models.PanelStatus{Details: resp.Details}
	}
	return models.PanelStatus{
		Reachable:    true,
		NeedsUpgrade: needsUpgrade(resp.Details),
		Details:      resp.Details,
	}
}

func needsUpgrade(d models.StatusDetails) bool {
	return bool(d.NeedsUpgrade) ||
		below(d.SmartComVersion, d.MinSmartComVersion) ||
		below(d.FirmwareVersion, d.MinFirmwareVersion)
}
