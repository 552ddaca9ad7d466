package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/repo"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/pkg/paging"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/telemetry"
)

const (
	defaultPendingLimit = 50
	maxPendingLimit     = 200
)

type ApprovalService interface {
	ListPending(ctx context.Context, in ListPendingInput) (*ListPendingOutput, error)
	// Approve and Deny on a decided request return it unchanged with NoOp set.
	Approve(ctx context.Context, id uint, approver *model.User) (*ApprovalResult, error)
	Deny(ctx context.Context, id uint, approver *model.User) (*ApprovalResult, error)
}

type ListPendingInput struct {
	GameName string      `form:"gameName" json:"game_name" binding:"required"`
	Limit    int         `form:"limit" json:"limit" binding:"omitempty,min=1,max=200"`
	Cursor   string      `form:"cursor" json:"cursor"`
	Actor    *model.User `form:"-" json:"-"`
}

type ListPendingOutput struct {
	Items      []*model.EditRequest `json:"items"`
	NextCursor string               `json:"next_cursor,omitempty"`
	HasMore    bool                 `json:"has_more"`
}

type ApprovalResult struct {
	Request *model.EditRequest `json:"request"`
	Entity  any                `json:"entity,omitempty"`
	NoOp    bool               `json:"no_op"`
}

type approvalService struct {
	edits        repo.EditRequestRepo
	projects     repo.ProjectRepo
	versions     repo.VersionRepo
	gameVersions GameVersionService
	catalog      Catalog
	notifier     Notifier
	log          *zap.Logger
}

func NewApprovalService(
	edits repo.EditRequestRepo,
	projects repo.ProjectRepo,
	versions repo.VersionRepo,
	gameVersions GameVersionService,
	catalog Catalog,
	notifier Notifier,
	log *zap.Logger,
) ApprovalService {
	return &approvalService{
		edits:        edits,
		projects:     projects,
		versions:     versions,
		gameVersions: gameVersions,
		catalog:      catalog,
		notifier:     notifier,
		log:          log,
	}
}

func (s *approvalService) ListPending(ctx context.Context, in ListPendingInput) (*ListPendingOutput, error) {
	if !canApprove(in.Actor, in.GameName) {
		return nil, ErrForbidden
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultPendingLimit
	}
	if limit > maxPendingLimit {
		limit = maxPendingLimit
	}

	var afterID uint
	if in.Cursor != "" {
		var err error
		if _, afterID, err = paging.DecodeCursor(in.Cursor); err != nil {
			return nil, validationf("%v", err)
		}
	}

	// one extra row tells whether another page exists
	items, err := s.edits.ListPending(ctx, in.GameName, afterID, limit+1)
	if err != nil {
		return nil, err
	}
	out := &ListPendingOutput{Items: items}
	if len(items) > limit {
		out.HasMore = true
		out.Items = items[:limit]
		last := out.Items[len(out.Items)-1]
		out.NextCursor = paging.EncodeCursor(last.CreatedAt, last.ID)
	}
	return out, nil
}

// load fetches the request and applies the shared guards; done reports a
// terminal request. Approving one's own submission is refused.
func (s *approvalService) load(ctx context.Context, id uint, approver *model.User) (req *model.EditRequest, done bool, err error) {
	req, err = s.edits.Get(ctx, id)
	if err != nil {
		return nil, false, storeErr(err, "edit request")
	}
	if !canApprove(approver, req.GameName) {
		return nil, false, ErrForbidden
	}
	if !req.Pending() {
		return req, true, nil
	}
	if req.SubmitterID == approver.ID {
		return nil, false, ErrForbidden
	}
	if err := req.Object.CheckTable(req.ObjectTableName); err != nil {
		s.log.Error("malformed edit request",
			zap.Uint("edit_id", req.ID),
			zap.String("table", string(req.ObjectTableName)),
			zap.Error(err))
		return nil, false, integrityf("edit request %d: %v", req.ID, err)
	}
	return req, false, nil
}

// stage loads the live entity and merges the request onto it. The returned
// previous value is a deep copy taken before the merge.
func (s *approvalService) stage(ctx context.Context, req *model.EditRequest, approver *model.User) (target, previous any, err error) {
	stamp := func(status model.Status, lastApproved **uint) {
		if status == model.StatusVerified {
			id := approver.ID
			*lastApproved = &id
		}
	}

	switch req.Object.Kind {
	case model.EditKindProject:
		p, err := s.projects.Get(ctx, req.ObjectID)
		if err != nil {
			return nil, nil, storeErr(err, "project")
		}
		previous = p.Clone()
		req.Object.Project.Apply(p)
		p.LastUpdatedByID = req.SubmitterID
		stamp(p.Status, &p.LastApprovedByID)
		return p, previous, nil

	case model.EditKindVersion:
		v, err := s.versions.Get(ctx, req.ObjectID)
		if err != nil {
			return nil, nil, storeErr(err, "version")
		}
		previous = v.Clone()
		patch := *req.Object.Version
		if patch.SupportedGameVersionIDs != nil {
			// links may have changed while the request waited
			supported, err := s.gameVersions.ExpandSupported(ctx, req.GameName, *patch.SupportedGameVersionIDs)
			if err != nil {
				return nil, nil, err
			}
			patch.SupportedGameVersionIDs = &supported
		}
		patch.Apply(v)
		v.LastUpdatedByID = req.SubmitterID
		stamp(v.Status, &v.LastApprovedByID)
		return v, previous, nil
	}
	return nil, nil, integrityf("edit request %d has unknown kind %q", req.ID, req.Object.Kind)
}

func (s *approvalService) Approve(ctx context.Context, id uint, approver *model.User) (*ApprovalResult, error) {
	req, done, err := s.load(ctx, id, approver)
	if err != nil {
		return nil, err
	}
	if done {
		return &ApprovalResult{Request: req, NoOp: true}, nil
	}

	target, previous, err := s.stage(ctx, req, approver)
	if err != nil {
		return nil, err
	}
	decided, err := s.edits.Decide(ctx, req.ID, true, approver.ID, target)
	if err != nil {
		return nil, storeErr(err, string(req.ObjectTableName))
	}
	return s.finish(ctx, req.ID, decided, true, target, previous, approver)
}

func (s *approvalService) Deny(ctx context.Context, id uint, approver *model.User) (*ApprovalResult, error) {
	req, done, err := s.load(ctx, id, approver)
	if err != nil {
		return nil, err
	}
	if done {
		return &ApprovalResult{Request: req, NoOp: true}, nil
	}
	decided, err := s.edits.Decide(ctx, req.ID, false, approver.ID, nil)
	if err != nil {
		return nil, storeErr(err, "edit request")
	}
	return s.finish(ctx, req.ID, decided, false, nil, nil, approver)
}

func (s *approvalService) finish(ctx context.Context, id uint, decided, approved bool, target, previous any, approver *model.User) (*ApprovalResult, error) {
	req, err := s.edits.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "edit request")
	}
	if !decided {
		// another approver got there first
		return &ApprovalResult{Request: req, NoOp: true}, nil
	}

	kind, decision := model.EventEditRejected, "denied"
	tables := []model.ObjectTable{model.TableEditRequests}
	if approved {
		kind, decision = model.EventEditApproved, "approved"
		tables = append(tables, req.ObjectTableName)
	}
	s.catalog.Invalidate(ctx, tables...)
	telemetry.RecordEditDecision(ctx, string(req.ObjectTableName), decision)

	ev := model.NewEvent(kind, req.ObjectTableName, req.ObjectID, req.GameName, approver.ID)
	ev.Entity = req
	if approved {
		ev.Entity = target
		ev.Previous = previous
	}
	s.notifier.Notify(ctx, ev)
	s.log.Info("edit decided",
		zap.Uint("edit_id", req.ID),
		zap.String("decision", decision),
		zap.Uint("approver_id", approver.ID))
	return &ApprovalResult{Request: req, Entity: target, NoOp: false}, nil
}
