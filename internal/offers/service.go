package offers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/backline-app/backline/internal/projects"
	"github.com/backline-app/backline/internal/shared"
)

// Service owns the offer lifecycle: draft editing with recompute on every
// mutation, the one-way send/lock transition, token-gated public actions and
// version duplication.
type Service struct {
	repo     Repository
	projects projects.Repository
	clock    shared.Clock
	tokens   shared.TokenGenerator
	logger   *slog.Logger
}

func NewService(repo Repository, projectRepo projects.Repository, clock shared.Clock, tokens shared.TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		projects: projectRepo,
		clock:    clock,
		tokens:   tokens,
		logger:   logger,
	}
}

func (s *Service) Create(ctx context.Context, req CreateOfferRequest) (*Offer, error) {
	if _, err := s.projects.Get(ctx, req.JobID); err != nil {
		return nil, fmt.Errorf("verify job: %w", err)
	}

	offer := buildOffer(req)
	if err := ValidateOffer(offer); err != nil {
		return nil, err
	}

	version, err := s.repo.NextVersion(ctx, req.JobID)
	if err != nil {
		return nil, fmt.Errorf("next version: %w", err)
	}
	offer.VersionNumber = version

	totals := ComputeTotals(PricingInput{
		Equipment:       offer.EquipmentItems(),
		Crew:            offer.Crew,
		Transport:       offer.Transport,
		DaysOfUse:       offer.DaysOfUse,
		DiscountPercent: offer.DiscountPercent,
		VATPercent:      offer.VATPercent,
	})
	applyTotals(offer, totals)

	var offerID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.Create(ctx, *offer)
		if err != nil {
			return fmt.Errorf("create offer: %w", err)
		}
		offerID = id
		return insertGraph(ctx, repo, id, offer)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.Get(ctx, offerID)
}

func (s *Service) Get(ctx context.Context, id int64) (*Offer, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListOffersRequest) ([]Offer, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateOfferRequest) (*Offer, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get offer: %w", err)
	}
	if !existing.Editable() {
		return nil, fmt.Errorf("%w: only draft offers can be updated", ErrInvalidStatus)
	}

	applyUpdate(existing, req)
	if err := ValidateOffer(existing); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"title":            existing.Title,
		"days_of_use":      existing.DaysOfUse,
		"discount_percent": existing.DiscountPercent,
		"vat_percent":      existing.VATPercent,
	}

	replaceGraph := req.Groups != nil || req.Crew != nil || req.Transport != nil || req.Sections != nil

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.UpdateMeta(ctx, id, updates); err != nil {
			return err
		}
		if replaceGraph {
			if err := repo.DeleteGraph(ctx, id); err != nil {
				return err
			}
			if err := insertGraph(ctx, repo, id, existing); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update offer: %w", err)
	}

	if err := s.Recalculate(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Recalculate recomputes and persists the totals from what is actually
// stored. It is the authoritative counterpart of the live recompute and uses
// the read-lag tolerant fetch because it often runs right after inserts.
func (s *Service) Recalculate(ctx context.Context, id int64) error {
	offer, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get offer: %w", err)
	}

	equipment, crew, transport, err := s.repo.LineItemsRetry(ctx, id)
	if err != nil {
		return fmt.Errorf("load line items: %w", err)
	}

	totals := ComputeTotals(PricingInput{
		Equipment:       equipment,
		Crew:            crew,
		Transport:       transport,
		DaysOfUse:       offer.DaysOfUse,
		DiscountPercent: offer.DiscountPercent,
		VATPercent:      offer.VATPercent,
	})
	if err := s.repo.UpdateTotals(ctx, id, totals); err != nil {
		return fmt.Errorf("persist totals: %w", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.DeleteDraft(ctx, id)
	if err != nil {
		return fmt.Errorf("delete offer: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: only draft offers can be deleted", ErrInvalidStatus)
	}
	return nil
}

// Send locks the offer, freezes its totals and activates a fresh public
// token. One-way: nothing ever unlocks an offer.
func (s *Service) Send(ctx context.Context, id int64) (*Offer, error) {
	token, err := s.tokens.Token()
	if err != nil {
		return nil, err
	}

	sent, err := s.repo.MarkSent(ctx, id, token, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("send offer: %w", err)
	}
	if !sent {
		return nil, fmt.Errorf("%w: only draft offers can be sent", ErrInvalidStatus)
	}
	return s.repo.Get(ctx, id)
}

// MarkViewed is called on every public page load. Best effort: failures are
// logged, never surfaced, so they cannot break the viewing flow.
func (s *Service) MarkViewed(ctx context.Context, id int64) {
	if err := s.repo.MarkViewed(ctx, id, s.clock.Now()); err != nil {
		s.logger.Warn("mark offer viewed failed", slog.Int64("offer_id", id), slog.Any("error", err))
	}
}

// Accept records the counterparty's acceptance. The write carries a status
// predicate; losing a race against another public action is a silent no-op
// so an unauthenticated caller learns nothing about internal state.
func (s *Service) Accept(ctx context.Context, token string, req PublicActionRequest) (*Offer, error) {
	offer, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	won, err := s.repo.Accept(ctx, offer.ID, req.Name, req.Phone, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("accept offer: %w", err)
	}
	if !won {
		s.logger.Info("accept ignored, offer already resolved", slog.Int64("offer_id", offer.ID))
		return nil, nil
	}
	return s.repo.Get(ctx, offer.ID)
}

func (s *Service) Reject(ctx context.Context, token string, req PublicActionRequest) (*Offer, error) {
	offer, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	won, err := s.repo.Reject(ctx, offer.ID, req.Name, req.Phone, req.Comment, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("reject offer: %w", err)
	}
	if !won {
		s.logger.Info("reject ignored, offer already resolved", slog.Int64("offer_id", offer.ID))
		return nil, nil
	}
	return s.repo.Get(ctx, offer.ID)
}

// RequestRevision flags the offer for rework without forking a version; the
// company answers by duplicating into a new draft.
func (s *Service) RequestRevision(ctx context.Context, token string, req PublicActionRequest) (*Offer, error) {
	offer, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	won, err := s.repo.RequestRevision(ctx, offer.ID, req.Name, req.Phone, req.Comment, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("request revision: %w", err)
	}
	if !won {
		s.logger.Info("revision request ignored, offer already resolved", slog.Int64("offer_id", offer.ID))
		return nil, nil
	}
	return s.repo.Get(ctx, offer.ID)
}

// Duplicate deep-copies the full line-item graph into a new draft with the
// next version number, recording provenance. A recompute failure after the
// copy exists is reported as a warning, never rolled back.
func (s *Service) Duplicate(ctx context.Context, id int64, req DuplicateOfferRequest) (*Offer, error) {
	source, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get offer: %w", err)
	}

	version, err := s.repo.NextVersion(ctx, source.JobID)
	if err != nil {
		return nil, fmt.Errorf("next version: %w", err)
	}

	copyOffer := *source
	copyOffer.ID = 0
	copyOffer.VersionNumber = version
	copyOffer.Status = StatusDraft
	copyOffer.Locked = false
	copyOffer.AccessToken = ""
	copyOffer.SentAt = nil
	copyOffer.ViewedAt = nil
	copyOffer.AcceptedAt = nil
	copyOffer.RejectedAt = nil
	copyOffer.RevisionRequestedAt = nil
	copyOffer.AcceptedByName = nil
	copyOffer.AcceptedByPhone = nil
	copyOffer.RejectedByName = nil
	copyOffer.RejectedByPhone = nil
	copyOffer.RevisionComment = nil
	copyOffer.BasedOnOfferID = &source.ID

	var copyID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		newID, err := repo.Create(ctx, copyOffer)
		if err != nil {
			return fmt.Errorf("create copy: %w", err)
		}
		copyID = newID
		return insertGraph(ctx, repo, newID, &copyOffer)
	})
	if err != nil {
		return nil, err
	}

	if err := s.Recalculate(ctx, copyID); err != nil {
		// The copy exists; a failed recompute is a soft warning, not a rollback.
		s.logger.Warn("recalculate after duplicate failed",
			slog.Int64("offer_id", copyID), slog.Any("error", err))
	}

	if req.SupersedeOriginal && source.Status != StatusDraft {
		if err := s.repo.MarkSuperseded(ctx, source.ID); err != nil {
			s.logger.Warn("supersede original failed",
				slog.Int64("offer_id", source.ID), slog.Any("error", err))
		}
	}

	return s.repo.Get(ctx, copyID)
}

func buildOffer(req CreateOfferRequest) *Offer {
	o := &Offer{
		JobID:           req.JobID,
		CompanyID:       req.CompanyID,
		Type:            req.Type,
		Status:          StatusDraft,
		Title:           req.Title,
		DaysOfUse:       req.DaysOfUse,
		DiscountPercent: req.DiscountPercent,
		VATPercent:      req.VATPercent,
	}
	o.Groups = buildGroups(req.Groups)
	o.Crew = buildCrew(req.Crew)
	o.Transport = buildTransport(req.Transport)
	o.Sections = buildSections(req.Sections)
	LineTotals(nil, o.Crew, o.Transport)
	for gi := range o.Groups {
		LineTotals(o.Groups[gi].Items, nil, nil)
	}
	return o
}

func applyUpdate(o *Offer, req UpdateOfferRequest) {
	if req.Title != nil {
		o.Title = *req.Title
	}
	if req.DaysOfUse != nil {
		o.DaysOfUse = *req.DaysOfUse
	}
	if req.DiscountPercent != nil {
		o.DiscountPercent = *req.DiscountPercent
	}
	if req.VATPercent != nil {
		o.VATPercent = *req.VATPercent
	}
	if req.Groups != nil {
		o.Groups = buildGroups(*req.Groups)
		for gi := range o.Groups {
			LineTotals(o.Groups[gi].Items, nil, nil)
		}
	}
	if req.Crew != nil {
		o.Crew = buildCrew(*req.Crew)
		LineTotals(nil, o.Crew, nil)
	}
	if req.Transport != nil {
		o.Transport = buildTransport(*req.Transport)
		LineTotals(nil, nil, o.Transport)
	}
	if req.Sections != nil {
		o.Sections = buildSections(*req.Sections)
	}
}

func buildGroups(reqs []EquipmentGroupReq) []EquipmentGroup {
	var groups []EquipmentGroup
	for i, g := range reqs {
		group := EquipmentGroup{Name: g.Name, SortOrder: g.SortOrder}
		if group.SortOrder == 0 {
			group.SortOrder = i + 1
		}
		for j, item := range g.Items {
			ei := EquipmentItem{
				CatalogItemID: item.CatalogItemID,
				Name:          item.Name,
				Quantity:      item.Quantity,
				UnitPrice:     item.UnitPrice,
				InternalOwned: item.InternalOwned,
				OwnerID:       item.OwnerID,
				SortOrder:     item.SortOrder,
			}
			if ei.SortOrder == 0 {
				ei.SortOrder = j + 1
			}
			group.Items = append(group.Items, ei)
		}
		groups = append(groups, group)
	}
	return groups
}

func buildCrew(reqs []CrewItemReq) []CrewItem {
	var crew []CrewItem
	for _, c := range reqs {
		crew = append(crew, CrewItem{
			RoleTitle: c.RoleTitle,
			CrewCount: c.CrewCount,
			StartsAt:  c.StartsAt,
			EndsAt:    c.EndsAt,
			DailyRate: c.DailyRate,
		})
	}
	return crew
}

func buildTransport(reqs []TransportItemReq) []TransportItem {
	var transport []TransportItem
	for _, t := range reqs {
		transport = append(transport, TransportItem{
			VehicleID:         t.VehicleID,
			VehicleName:       t.VehicleName,
			VehicleCategory:   t.VehicleCategory,
			StartsAt:          t.StartsAt,
			EndsAt:            t.EndsAt,
			DailyRate:         t.DailyRate,
			DistanceRate:      t.DistanceRate,
			DistanceIncrement: t.DistanceIncrement,
			InternalOwned:     t.InternalOwned,
		})
	}
	return transport
}

func buildSections(reqs []PrettySectionReq) []PrettySection {
	var sections []PrettySection
	for i, sec := range reqs {
		s := PrettySection{Kind: sec.Kind, Heading: sec.Heading, Body: sec.Body, SortOrder: sec.SortOrder}
		if s.SortOrder == 0 {
			s.SortOrder = i + 1
		}
		sections = append(sections, s)
	}
	return sections
}

func insertGraph(ctx context.Context, repo Repository, offerID int64, o *Offer) error {
	for _, g := range o.Groups {
		g.OfferID = offerID
		groupID, err := repo.InsertGroup(ctx, g)
		if err != nil {
			return fmt.Errorf("insert group: %w", err)
		}
		for _, item := range g.Items {
			item.ID = 0
			item.GroupID = groupID
			if _, err := repo.InsertEquipmentItem(ctx, item); err != nil {
				return fmt.Errorf("insert equipment item: %w", err)
			}
		}
	}
	for _, c := range o.Crew {
		c.ID = 0
		c.OfferID = offerID
		if _, err := repo.InsertCrewItem(ctx, c); err != nil {
			return fmt.Errorf("insert crew item: %w", err)
		}
	}
	for _, tr := range o.Transport {
		tr.ID = 0
		tr.OfferID = offerID
		if _, err := repo.InsertTransportItem(ctx, tr); err != nil {
			return fmt.Errorf("insert transport item: %w", err)
		}
	}
	for _, sec := range o.Sections {
		sec.ID = 0
		sec.OfferID = offerID
		if _, err := repo.InsertSection(ctx, sec); err != nil {
			return fmt.Errorf("insert section: %w", err)
		}
	}
	return nil
}

func applyTotals(o *Offer, t Totals) {
	o.EquipmentSubtotal = t.EquipmentSubtotal
	o.CrewSubtotal = t.CrewSubtotal
	o.TransportSubtotal = t.TransportSubtotal
	o.TotalBeforeDiscount = t.TotalBeforeDiscount
	o.TotalAfterDiscount = t.TotalAfterDiscount
	o.TotalWithVAT = t.TotalWithVAT
}
