package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/repo"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/pkg/lifecycle"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/telemetry"
)

// EditOutcome carries exactly one of Applied or Queued.
type EditOutcome struct {
	Applied any                `json:"applied,omitempty"`
	Queued  *model.EditRequest `json:"queued,omitempty"`
}

// EditQueue routes an already validated and authorized patch either onto the
// live entity or into the moderation queue, depending on the entity status.
type EditQueue interface {
	SubmitProject(ctx context.Context, p *model.Project, patch model.ProjectPatch, submitter *model.User) (*EditOutcome, error)
	SubmitVersion(ctx context.Context, v *model.Version, gameName string, patch model.VersionPatch, submitter *model.User) (*EditOutcome, error)
}

type editQueue struct {
	projects repo.ProjectRepo
	versions repo.VersionRepo
	edits    repo.EditRequestRepo
	catalog  Catalog
	notifier Notifier
	log      *zap.Logger
}

func NewEditQueue(
	projects repo.ProjectRepo,
	versions repo.VersionRepo,
	edits repo.EditRequestRepo,
	catalog Catalog,
	notifier Notifier,
	log *zap.Logger,
) EditQueue {
	return &editQueue{projects: projects, versions: versions, edits: edits, catalog: catalog, notifier: notifier, log: log}
}

type editTarget struct {
	table   model.ObjectTable
	id      uint
	game    string
	status  model.Status
	payload model.EditPayload
	// merge applies the payload and stamps the submitter on the live entity.
	merge    func()
	save     func(ctx context.Context) error
	snapshot func() any
}

func (q *editQueue) SubmitProject(ctx context.Context, p *model.Project, patch model.ProjectPatch, submitter *model.User) (*EditOutcome, error) {
	return q.submit(ctx, editTarget{
		table:   model.TableProjects,
		id:      p.ID,
		game:    p.GameName,
		status:  p.Status,
		payload: model.ProjectEdit(patch),
		merge: func() {
			patch.Apply(p)
			p.LastUpdatedByID = submitter.ID
		},
		save:     func(ctx context.Context) error { return q.projects.Save(ctx, p) },
		snapshot: func() any { return p.Clone() },
	}, submitter)
}

func (q *editQueue) SubmitVersion(ctx context.Context, v *model.Version, gameName string, patch model.VersionPatch, submitter *model.User) (*EditOutcome, error) {
	return q.submit(ctx, editTarget{
		table:   model.TableVersions,
		id:      v.ID,
		game:    gameName,
		status:  v.Status,
		payload: model.VersionEdit(patch),
		merge: func() {
			patch.Apply(v)
			v.LastUpdatedByID = submitter.ID
		},
		save:     func(ctx context.Context) error { return q.versions.Save(ctx, v) },
		snapshot: func() any { return v.Clone() },
	}, submitter)
}

func (q *editQueue) submit(ctx context.Context, t editTarget, submitter *model.User) (*EditOutcome, error) {
	decision := lifecycle.DecideEdit(t.status, t.payload.Kind)
	telemetry.RecordEditDecision(ctx, string(t.table), decision.String())

	switch decision {
	case lifecycle.ApplyDirect:
		prev := t.snapshot()
		t.merge()
		if err := t.save(ctx); err != nil {
			return nil, storeErr(err, string(t.table))
		}
		q.catalog.Invalidate(ctx, t.table)

		ev := model.NewEvent(model.EventUpdated, t.table, t.id, t.game, submitter.ID)
		ev.Entity = t.snapshot()
		ev.Previous = prev
		q.notifier.Notify(ctx, ev)
		return &EditOutcome{Applied: ev.Entity}, nil

	case lifecycle.Enqueue:
		req, resubmitted, err := q.enqueue(ctx, t, submitter.ID)
		if err != nil {
			return nil, err
		}
		kind := model.EventEditSubmitted
		if resubmitted {
			kind = model.EventEditUpdated
		}
		ev := model.NewEvent(kind, t.table, t.id, t.game, submitter.ID)
		ev.Entity = req
		q.notifier.Notify(ctx, ev)
		q.log.Info("edit queued",
			zap.Uint("edit_id", req.ID),
			zap.String("table", string(t.table)),
			zap.Uint("object_id", t.id),
			zap.Bool("resubmitted", resubmitted))
		return &EditOutcome{Queued: req}, nil
	}
	return nil, conflictf("%s %d is %s and cannot be edited", t.table, t.id, t.status)
}

// enqueue overwrites the submitter's pending request for the entity, or
// creates one. The partial unique index decides racing creates; the loser
// folds its patch into the winner.
func (q *editQueue) enqueue(ctx context.Context, t editTarget, submitterID uint) (*model.EditRequest, bool, error) {
	for attempt := 0; attempt < 3; attempt++ {
		existing, err := q.edits.FindPending(ctx, t.id, t.table, submitterID)
		switch {
		case err == nil:
			existing.Object = t.payload
			ok, err := q.edits.UpdatePendingObject(ctx, existing)
			if err != nil {
				return nil, false, storeErr(err, "edit request")
			}
			if ok {
				q.catalog.Invalidate(ctx, model.TableEditRequests)
				return existing, true, nil
			}
			// decided between lookup and write
		case !repo.IsNotFound(err):
			return nil, false, storeErr(err, "edit request")
		}

		req := &model.EditRequest{
			SubmitterID:     submitterID,
			ObjectID:        t.id,
			ObjectTableName: t.table,
			GameName:        t.game,
			Object:          t.payload,
		}
		err = q.edits.Create(ctx, req)
		if err == nil {
			q.catalog.Invalidate(ctx, model.TableEditRequests)
			return req, false, nil
		}
		if !repo.IsDuplicate(err) {
			return nil, false, storeErr(err, "edit request")
		}
	}
	return nil, false, conflictf("edit request for %s %d keeps changing, retry later", t.table, t.id)
}
