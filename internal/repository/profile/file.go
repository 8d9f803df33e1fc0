package profile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/movement-guard/internal/config"
	"github.com/oshokin/movement-guard/internal/domain/movement"
	pb "github.com/oshokin/movement-guard/internal/pb/v1"
)

// Repository defines persistence operations for the explicit profile.
type Repository interface {
	Load(ctx context.Context) (movement.SensitivityProfile, error)
	Save(ctx context.Context, profile movement.SensitivityProfile) error
}

// FileRepository persists the profile to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the JSON profile file.
	path string
	// mu protects concurrent access to the profile file.
	mu sync.Mutex
}

// ErrNotFound is returned when no profile has been saved yet.
var ErrNotFound = errors.New("profile not found")

// NewFileRepository creates a repository that reads and writes JSON at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the file the repository works with.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads and validates the stored profile.
func (r *FileRepository) Load(_ context.Context) (movement.SensitivityProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return movement.SensitivityProfile{}, ErrNotFound
		}

		return movement.SensitivityProfile{}, fmt.Errorf("read profile file: %w", err)
	}

	var stored structpb.Struct
	if err = protojson.Unmarshal(contents, &stored); err != nil {
		return movement.SensitivityProfile{}, fmt.Errorf("decode profile file: %w", err)
	}

	profile, err := pb.ProfileFromStruct(&stored)
	if err != nil {
		return movement.SensitivityProfile{}, fmt.Errorf("decode profile file: %w", err)
	}

	if err = profile.Validate(); err != nil {
		return movement.SensitivityProfile{}, fmt.Errorf("stored profile: %w", err)
	}

	return profile, nil
}

// Save writes the profile to disk.
func (r *FileRepository) Save(_ context.Context, profile movement.SensitivityProfile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	marshalOptions := protojson.MarshalOptions{
		Multiline: true,
		Indent:    "  ",
	}

	data, err := marshalOptions.Marshal(pb.ProfileToStruct(profile))
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write profile file: %w", err)
	}

	return nil
}
