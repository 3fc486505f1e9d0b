package repositories

import (
	"context"
	"errors"
	"time"

	"maycast/server/modules/room/domain/entities"
	"maycast/server/seedwork/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRoomRepository implements RoomRepository using GORM
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a new GORM room repository
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

// Save upserts a room
func (r *GormRoomRepository) Save(ctx context.Context, room *entities.Room) error {
	return r.db.WithContext(ctx).Save(room).Error
}

// FindByID retrieves a room by its ID
func (r *GormRoomRepository) FindByID(ctx context.Context, id string) (*entities.Room, error) {
	var room entities.Room
	err := r.db.WithContext(ctx).First(&room, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewDomainError(domain.KindNotFound, "ROOM_NOT_FOUND", "room not found", err)
		}
		return nil, err
	}
	return &room, nil
}

// FindByAccessToken retrieves a room by its director access token
func (r *GormRoomRepository) FindByAccessToken(ctx context.Context, token string) (*entities.Room, error) {
	var room entities.Room
	err := r.db.WithContext(ctx).First(&room, "access_token = ?", token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewDomainError(domain.KindNotFound, "ROOM_NOT_FOUND", "room not found", err)
		}
		return nil, err
	}
	return &room, nil
}

// List returns all rooms, newest first
func (r *GormRoomRepository) List(ctx context.Context) ([]*entities.Room, error) {
	var rooms []*entities.Room
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rooms).Error
	return rooms, err
}

// Delete removes a room. The room_recordings FK cascades membership rows;
// the recordings themselves are kept.
func (r *GormRoomRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&entities.Room{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewDomainError(domain.KindNotFound, "ROOM_NOT_FOUND", "room not found", nil)
	}
	return nil
}

// TransitionState performs the conditional state update. A zero row count is
// disambiguated by re-reading the room: missing row means not-found, present
// row means the state precondition no longer holds.
func (r *GormRoomRepository) TransitionState(ctx context.Context, id string, from, to entities.RoomState) error {
	result := r.db.WithContext(ctx).Model(&entities.Room{}).
		Where("id = ? AND state = ?", id, from).
		Updates(map[string]interface{}{"state": to, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		current, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		return domain.NewDomainError(domain.KindInvalidTransition, "INVALID_STATE_TRANSITION",
			"room is in state "+string(current.State)+", expected "+string(from), nil)
	}
	return nil
}

// AddRecording links a recording into the room with set semantics
func (r *GormRoomRepository) AddRecording(ctx context.Context, roomID, recordingID string) error {
	link := entities.RoomRecordingLink{RoomID: roomID, RecordingID: recordingID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&link).Error
}

// RemoveRecording unlinks a recording from the room
func (r *GormRoomRepository) RemoveRecording(ctx context.Context, roomID, recordingID string) error {
	return r.db.WithContext(ctx).
		Delete(&entities.RoomRecordingLink{}, "room_id = ? AND recording_id = ?", roomID, recordingID).Error
}

// ListRecordingIDs returns the ids of recordings linked into the room
func (r *GormRoomRepository) ListRecordingIDs(ctx context.Context, roomID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&entities.RoomRecordingLink{}).
		Where("room_id = ?", roomID).
		Order("recording_id").
		Pluck("recording_id", &ids).Error
	return ids, err
}

// ClearRecordings unlinks every recording from the room
func (r *GormRoomRepository) ClearRecordings(ctx context.Context, roomID string) error {
	return r.db.WithContext(ctx).
		Delete(&entities.RoomRecordingLink{}, "room_id = ?", roomID).Error
}
