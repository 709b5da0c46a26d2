package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"learning-platform-backend/models"
	"learning-platform-backend/utils"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Export formats for chat transcripts.
const (
	ExportFormatJSON  = "json"
	ExportFormatExcel = "excel"
)

// ExportFile is a rendered transcript ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	db  *mongo.Database
	log *slog.Logger
}

func NewExportService(db *mongo.Database, log *slog.Logger) *ExportService {
	return &ExportService{db: db, log: log}
}

// ExportChat renders the full message history of a chat in the requested
// format. Messages come back in chronological order. Loading the history is
// capped so an oversized chat cannot hold the request open indefinitely.
func (s *ExportService) ExportChat(ctx context.Context, chat *models.Chat, format string) (*ExportFile, error) {
	loadCtx, cancel := utils.WithLongTimeout(ctx)
	defer cancel()
	messages, err := s.loadMessages(loadCtx, chat.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	base := fmt.Sprintf("chat-%s-%s", chat.ID.Hex(), time.Now().Format("2006-01-02"))

	switch format {
	case ExportFormatJSON:
		data, err := s.renderJSON(chat, messages)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Filename:    base + ".json",
			ContentType: "application/json",
			Data:        data,
		}, nil

	case ExportFormatExcel:
		data, err := s.renderExcel(chat, messages)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Filename:    base + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func (s *ExportService) loadMessages(ctx context.Context, chatID primitive.ObjectID) ([]models.ChatMessage, error) {
	cursor, err := s.db.Collection("chat_messages").Find(ctx, bson.M{"chat_id": chatID},
		options.Find().SetSort(bson.M{"timestamp": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []models.ChatMessage
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *ExportService) renderJSON(chat *models.Chat, messages []models.ChatMessage) ([]byte, error) {
	doc := struct {
		ChatID     string               `json:"chat_id"`
		Title      string               `json:"title"`
		CourseID   string               `json:"course_id,omitempty"`
		ExportedAt time.Time            `json:"exported_at"`
		Messages   []models.ChatMessage `json:"messages"`
	}{
		ChatID:     chat.ID.Hex(),
		Title:      chat.Title,
		ExportedAt: time.Now(),
		Messages:   messages,
	}
	if chat.CourseID != nil {
		doc.CourseID = chat.CourseID.Hex()
	}
	return json.MarshalIndent(doc, "", "  ")
}

func (s *ExportService) renderExcel(chat *models.Chat, messages []models.ChatMessage) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.log.Warn("failed to close export workbook", "error", err)
		}
	}()

	const sheet = "Transcript"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Timestamp", "Role", "Content"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, msg := range messages {
		values := []interface{}{
			msg.Timestamp.Format(time.RFC3339),
			msg.Role,
			msg.Content,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	f.SetColWidth(sheet, "A", "A", 22)
	f.SetColWidth(sheet, "B", "B", 10)
	f.SetColWidth(sheet, "C", "C", 90)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
