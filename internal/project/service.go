// Package project persists edits: the versioned document format, the SQLite
// repository behind it, the scaffold a fresh project starts from, storyboard
// expansion and the autosaver that flushes dirty sessions.
package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cutroom/cutroom-agent/internal/assets"
	"github.com/cutroom/cutroom-agent/internal/logging"
	"github.com/cutroom/cutroom-agent/internal/playback"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

const configKeyActiveProject = "active_project"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrProjectOpen     = errors.New("project is currently open")
)

// Service owns the mapping between stored projects and the one live editing
// session. Exactly one project is open at a time; opening another replaces
// the session's state wholesale.
type Service struct {
	repo     Repository
	session  *playback.Session
	prefetch *assets.Prefetcher
	logger   *slog.Logger

	watermarkRef string
	musicRef     string

	mu         sync.Mutex
	activeID   string
	activeName string

	pendingSave atomic.Bool
}

func NewService(repo Repository, session *playback.Session, logger *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		session:      session,
		logger:       logger,
		watermarkRef: DefaultWatermarkRef,
		musicRef:     DefaultMusicRef,
	}
}

// SetPrefetcher wires asset warming on open and scene expansion.
func (s *Service) SetPrefetcher(p *assets.Prefetcher) {
	s.prefetch = p
}

// SetDefaultRefs overrides the scaffold watermark and music content.
func (s *Service) SetDefaultRefs(watermarkRef, musicRef string) {
	if watermarkRef != "" {
		s.watermarkRef = watermarkRef
	}
	if musicRef != "" {
		s.musicRef = musicRef
	}
}

func (s *Service) Create(ctx context.Context, name string) (*Project, error) {
	if name == "" {
		name = "Untitled Project"
	}
	now := time.Now()
	p := &Project{
		ID:        uuid.NewString(),
		Name:      name,
		Document:  DefaultDocument(name, s.watermarkRef, s.musicRef),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.logger.Info("project created", "project_id", p.ID, "name", p.Name)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProjectNotFound
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*Project, error) {
	return s.repo.ListProjects(ctx)
}

func (s *Service) Rename(ctx context.Context, id, name string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.RenameProject(ctx, id, name); err != nil {
		return err
	}
	s.mu.Lock()
	if s.activeID == id {
		s.activeName = name
	}
	s.mu.Unlock()
	return nil
}

// Delete removes a stored project. The open project cannot be deleted while
// it is live; close it by opening another first.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	open := s.activeID == id
	s.mu.Unlock()
	if open {
		return ErrProjectOpen
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteProject(ctx, id)
}

// Open loads a stored document into the live session, replacing whatever
// was there. The previous project's unsaved changes are flushed first.
func (s *Service) Open(ctx context.Context, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	log := logging.WithProjectID(s.logger, p.ID)

	if err := s.Flush(ctx); err != nil {
		log.Warn("flush before open failed", "error", err)
	}

	if err := s.session.Restore(p.Document.Snapshot()); err != nil {
		return err
	}

	s.mu.Lock()
	s.activeID = p.ID
	s.activeName = p.Name
	s.mu.Unlock()

	if err := s.repo.SetConfig(ctx, configKeyActiveProject, p.ID); err != nil {
		log.Warn("failed to remember active project", "error", err)
	}

	s.warmAssets(p.Document.Clips)
	log.Info("project opened", "name", p.Name, "clips", len(p.Document.Clips))
	return nil
}

// OpenLast restores the project that was open when the agent last ran,
// falling back to the most recently touched project, then to a fresh one.
func (s *Service) OpenLast(ctx context.Context) error {
	if id, err := s.repo.GetConfig(ctx, configKeyActiveProject); err == nil && id != "" {
		if err := s.Open(ctx, id); err == nil {
			return nil
		} else if !errors.Is(err, ErrProjectNotFound) {
			return err
		}
	}

	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return err
	}
	if len(projects) > 0 {
		return s.Open(ctx, projects[0].ID)
	}

	p, err := s.Create(ctx, "")
	if err != nil {
		return err
	}
	return s.Open(ctx, p.ID)
}

// Active reports the open project, if any.
func (s *Service) Active() (id, name string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID, s.activeName, s.activeID != ""
}

// SaveActive writes the live session state over the open project's stored
// document.
func (s *Service) SaveActive(ctx context.Context) error {
	s.mu.Lock()
	id, name := s.activeID, s.activeName
	s.mu.Unlock()
	if id == "" {
		return nil
	}

	doc := FromSnapshot(name, s.session.Snapshot())
	if err := s.repo.SaveDocument(ctx, id, doc); err != nil {
		return fmt.Errorf("save project %s: %w", id, err)
	}
	s.logger.Debug("project saved", "project_id", id, "clips", len(doc.Clips))
	return nil
}

// Flush saves the open project when the session has unsaved edits. A failed
// save stays pending, so the next flush retries instead of losing work.
func (s *Service) Flush(ctx context.Context) error {
	if s.session.ConsumeDirty() {
		s.pendingSave.Store(true)
	}
	if !s.pendingSave.Load() {
		return nil
	}
	if err := s.SaveActive(ctx); err != nil {
		return err
	}
	s.pendingSave.Store(false)
	return nil
}

// ApplyScenes replaces the storyboard portion of the open edit. Clips the
// user placed by hand keep their spots.
func (s *Service) ApplyScenes(ctx context.Context, scenes []Scene) ([]timeline.Clip, error) {
	clips, err := ExpandScenes(s.session.Tracks(), scenes)
	if err != nil {
		return nil, err
	}
	if err := s.session.ReplaceOriginClips(timeline.OriginScene, clips); err != nil {
		return nil, err
	}
	s.warmAssets(clips)
	s.logger.Info("scenes applied", "scenes", len(scenes), "clips", len(clips))
	return clips, nil
}

func (s *Service) warmAssets(clips []timeline.Clip) {
	if s.prefetch == nil {
		return
	}
	seen := map[string]bool{}
	var refs []string
	for _, c := range clips {
		if c.ContentRef != "" && !seen[c.ContentRef] {
			seen[c.ContentRef] = true
			refs = append(refs, c.ContentRef)
		}
	}
	s.prefetch.Enqueue(refs...)
}
