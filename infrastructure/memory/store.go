// Package memory keeps identities and descriptors in process memory.
// It backs STORE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"faceauth/domain/models"
	"faceauth/domain/repositories"
)

// Store holds both collections behind one lock so Enroll is atomic.
type Store struct {
	mu          sync.RWMutex
	identities  map[uuid.UUID]*models.Identity
	descriptors []*models.FaceDescriptor
}

func NewStore() *Store {
	return &Store{
		identities: make(map[uuid.UUID]*models.Identity),
	}
}

// Identities returns the store as an IdentityRepository
func (s *Store) Identities() repositories.IdentityRepository {
	return &identityRepository{s: s}
}

// Descriptors returns the store as a DescriptorRepository
func (s *Store) Descriptors() repositories.DescriptorRepository {
	return &descriptorRepository{s: s}
}

func copyIdentity(i *models.Identity) *models.Identity {
	c := *i
	c.Descriptors = nil
	if i.DisplayName != nil {
		name := *i.DisplayName
		c.DisplayName = &name
	}
	return &c
}

func copyDescriptor(d *models.FaceDescriptor) models.FaceDescriptor {
	c := *d
	c.Identity = nil
	c.Vector = pgvector.NewVector(append([]float32(nil), d.Vector.Slice()...))
	return c
}

func stamp(id *uuid.UUID, createdAt, updatedAt *time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	now := time.Now()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}

type identityRepository struct {
	s *Store
}

func (r *identityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	identity, ok := r.s.identities[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyIdentity(identity), nil
}

func (r *identityRepository) Rename(ctx context.Context, id uuid.UUID, displayName string) (*models.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	identity, ok := r.s.identities[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	identity.DisplayName = &displayName
	identity.IsNewlyEnrolled = false
	identity.UpdatedAt = time.Now()
	return copyIdentity(identity), nil
}

func (r *identityRepository) List(ctx context.Context, offset, limit int) ([]models.Identity, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]models.Identity, 0, len(r.s.identities))
	for _, identity := range r.s.identities {
		all = append(all, *copyIdentity(identity))
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	total := int64(len(all))
	if offset >= len(all) {
		return []models.Identity{}, total, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func (r *identityRepository) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.identities)), nil
}

func (r *identityRepository) CountWithoutDescriptors(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	withFaces := make(map[uuid.UUID]bool, len(r.s.descriptors))
	for _, d := range r.s.descriptors {
		withFaces[d.IdentityID] = true
	}

	var count int64
	for id := range r.s.identities {
		if !withFaces[id] {
			count++
		}
	}
	return count, nil
}

type descriptorRepository struct {
	s *Store
}

func (r *descriptorRepository) ListAll(ctx context.Context) ([]models.FaceDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	descriptors := make([]models.FaceDescriptor, len(r.s.descriptors))
	for i, d := range r.s.descriptors {
		descriptors[i] = copyDescriptor(d)
	}
	return descriptors, nil
}

func (r *descriptorRepository) GetByIdentity(ctx context.Context, identityID uuid.UUID) ([]models.FaceDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var descriptors []models.FaceDescriptor
	for _, d := range r.s.descriptors {
		if d.IdentityID == identityID {
			descriptors = append(descriptors, copyDescriptor(d))
		}
	}
	return descriptors, nil
}

func (r *descriptorRepository) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.descriptors)), nil
}

func (r *descriptorRepository) Enroll(ctx context.Context, identity *models.Identity, descriptor *models.FaceDescriptor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stamp(&identity.ID, &identity.CreatedAt, &identity.UpdatedAt)
	r.s.identities[identity.ID] = copyIdentity(identity)

	descriptor.IdentityID = identity.ID
	stamp(&descriptor.ID, &descriptor.CreatedAt, &descriptor.UpdatedAt)
	c := copyDescriptor(descriptor)
	r.s.descriptors = append(r.s.descriptors, &c)
	return nil
}
