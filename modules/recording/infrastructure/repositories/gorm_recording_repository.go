package repositories

import (
	"context"
	"errors"
	"time"

	"maycast/server/modules/recording/domain/entities"
	"maycast/server/modules/recording/domain/repositories"
	"maycast/server/seedwork/domain"

	"gorm.io/gorm"
)

// GormRecordingRepository implements RecordingRepository using GORM
type GormRecordingRepository struct {
	db *gorm.DB
}

// NewGormRecordingRepository creates a new GORM recording repository
func NewGormRecordingRepository(db *gorm.DB) *GormRecordingRepository {
	return &GormRecordingRepository{db: db}
}

// Save upserts a recording
func (r *GormRecordingRepository) Save(ctx context.Context, rec *entities.Recording) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

// FindByID retrieves a recording by its ID
func (r *GormRecordingRepository) FindByID(ctx context.Context, id string) (*entities.Recording, error) {
	var rec entities.Recording
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewDomainError(domain.KindNotFound, "RECORDING_NOT_FOUND", "recording not found", err)
		}
		return nil, err
	}
	return &rec, nil
}

// ListByRoom returns the recordings linked into a room, oldest first
func (r *GormRecordingRepository) ListByRoom(ctx context.Context, roomID string) ([]*entities.Recording, error) {
	var recs []*entities.Recording
	err := r.db.WithContext(ctx).
		Joins("JOIN room_recordings ON room_recordings.recording_id = recordings.id").
		Where("room_recordings.room_id = ?", roomID).
		Order("recordings.created_at ASC").
		Find(&recs).Error
	return recs, err
}

// TransitionState performs the conditional state update
func (r *GormRecordingRepository) TransitionState(ctx context.Context, id string, from, to entities.RecordingState) error {
	result := r.db.WithContext(ctx).Model(&entities.Recording{}).
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
			"recording is in state "+string(current.State)+", expected "+string(from), nil)
	}
	return nil
}

// UpdateMetadata replaces the metadata blob
func (r *GormRecordingRepository) UpdateMetadata(ctx context.Context, id string, metadata *entities.RecordingMetadata) error {
	result := r.db.WithContext(ctx).Model(&entities.Recording{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"metadata": metadata, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewDomainError(domain.KindNotFound, "RECORDING_NOT_FOUND", "recording not found", nil)
	}
	return nil
}

// IncrementChunkCount atomically bumps the chunk counter and total size
func (r *GormRecordingRepository) IncrementChunkCount(ctx context.Context, id string, size int64) error {
	result := r.db.WithContext(ctx).Model(&entities.Recording{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"chunk_count": gorm.Expr("chunk_count + 1"),
			"total_size":  gorm.Expr("total_size + ?", size),
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewDomainError(domain.KindNotFound, "RECORDING_NOT_FOUND", "recording not found", nil)
	}
	return nil
}

// SetEndTime records when capture stopped
func (r *GormRecordingRepository) SetEndTime(ctx context.Context, id string, endTime time.Time) error {
	result := r.db.WithContext(ctx).Model(&entities.Recording{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"end_time": endTime, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewDomainError(domain.KindNotFound, "RECORDING_NOT_FOUND", "recording not found", nil)
	}
	return nil
}

// UpdateProcessingState records extraction progress
func (r *GormRecordingRepository) UpdateProcessingState(ctx context.Context, id string, state entities.ProcessingState, update repositories.ProcessingUpdate) error {
	values := map[string]interface{}{
		"processing_state": state,
		"processing_error": update.Error,
		"updated_at":       time.Now(),
	}
	if update.MP4Key != "" {
		values["output_mp4_key"] = update.MP4Key
	}
	if update.M4AKey != "" {
		values["output_m4a_key"] = update.M4AKey
	}
	if update.ProcessedAt != nil {
		values["processed_at"] = *update.ProcessedAt
	}

	result := r.db.WithContext(ctx).Model(&entities.Recording{}).
		Where("id = ?", id).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewDomainError(domain.KindNotFound, "RECORDING_NOT_FOUND", "recording not found", nil)
	}
	return nil
}

// UpdateTranscriptionState records transcription progress
func (r *GormRecordingRepository) UpdateTranscriptionState(ctx context.Context, id string, state entities.ProcessingState, update repositories.TranscriptionUpdate) error {
	values := map[string]interface{}{
		"transcription_state": state,
		"transcription_error": update.Error,
		"updated_at":          time.Now(),
	}
	if update.VTTKey != "" {
		values["output_vtt_key"] = update.VTTKey
	}
	if update.TranscribedAt != nil {
		values["transcribed_at"] = *update.TranscribedAt
	}

	result := r.db.WithContext(ctx).Model(&entities.Recording{}).
		Where("id = ?", id).
		Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewDomainError(domain.KindNotFound, "RECORDING_NOT_FOUND", "recording not found", nil)
	}
	return nil
}

// Delete removes a recording row
func (r *GormRecordingRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&entities.Recording{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NewDomainError(domain.KindNotFound, "RECORDING_NOT_FOUND", "recording not found", nil)
	}
	return nil
}
