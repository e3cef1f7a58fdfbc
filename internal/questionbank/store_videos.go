package questionbank

import (
	"context"
	"fmt"
	"time"
)

// RecordVideo inserts a row for a produced video and fills in its ID and
// creation time.
func (s *Store) RecordVideo(ctx context.Context, video *Video) error {
	if video == nil {
		return fmt.Errorf("record video: nil video")
	}
	if video.Title == "" {
		return fmt.Errorf("record video: title must not be empty")
	}
	if video.Kind == "" {
		return fmt.Errorf("record video: kind must not be empty")
	}
	video.CreatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO videos (title, file_path, youtube_id, kind, question_count, created_at, uploaded_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		video.Title,
		nullableString(video.FilePath),
		nullableString(video.YouTubeID),
		video.Kind,
		video.QuestionCount,
		formatTime(video.CreatedAt),
		formatTimePtr(video.UploadedAt),
	)
	if err != nil {
		return fmt.Errorf("record video: %w", err)
	}
	video.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("record video id: %w", err)
	}
	return nil
}

// MarkVideoUploaded stores the YouTube ID and upload time for a video row.
func (s *Store) MarkVideoUploaded(ctx context.Context, id int64, youtubeID string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE videos SET youtube_id = ?, uploaded_at = ? WHERE id = ?`,
		youtubeID, formatTime(time.Now().UTC()), id,
	)
	if err != nil {
		return fmt.Errorf("mark video uploaded: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("mark video uploaded: no video with id %d", id)
	}
	return nil
}

// DeleteVideo removes a video row. Used when a job fails after render so no
// row references an artifact that was never published. Deleting an absent id
// is a no-op.
func (s *Store) DeleteVideo(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}

// ListVideos returns the most recent videos, newest first. A non-positive
// limit returns every row.
func (s *Store) ListVideos(ctx context.Context, limit int) ([]Video, error) {
	query := `SELECT id, title, file_path, youtube_id, kind, question_count, created_at, uploaded_at
        FROM videos ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		var (
			video     Video
			filePath  *string
			youtubeID *string
			created   string
			uploaded  *string
		)
		if err := rows.Scan(&video.ID, &video.Title, &filePath, &youtubeID, &video.Kind, &video.QuestionCount, &created, &uploaded); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		if filePath != nil {
			video.FilePath = *filePath
		}
		if youtubeID != nil {
			video.YouTubeID = *youtubeID
		}
		video.CreatedAt, err = parseTimeString(created)
		if err != nil {
			return nil, err
		}
		if uploaded != nil {
			at, err := parseTimeString(*uploaded)
			if err != nil {
				return nil, err
			}
			video.UploadedAt = &at
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}
