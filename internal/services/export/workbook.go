package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/nilufaroy/FerPs-Anon-bot-2/internal/infra/telegram"
	pgrepo "github.com/nilufaroy/FerPs-Anon-bot-2/internal/repo/postgres"
)

const sheetName = "Submissions"

const (
	colMessage = "A"
	colSentAt  = "B"
	colType    = "C"
	colLink    = "D"
	colPhoto   = "E"
)

func (s *Service) writeWorkbook(ctx context.Context, records []pgrepo.SubmissionRecord, path string) error {
	f, err := s.buildWorkbook(ctx, records)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	return nil
}

// buildWorkbook renders one row per record, oldest first as delivered by the
// store. Embedded images are best-effort: a failed media fetch keeps the row
// and skips only the picture.
func (s *Service) buildWorkbook(ctx context.Context, records []pgrepo.SubmissionRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	widths := map[string]float64{
		colMessage: 70,
		colSentAt:  22,
		colType:    12,
		colLink:    40,
		colPhoto:   25,
	}
	for col, width := range widths {
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	headers := []struct{ col, title string }{
		{colMessage, "Message"},
		{colSentAt, "Sent (UTC)"},
		{colType, "Type"},
		{colLink, "Channel Link"},
		{colPhoto, "Photo"},
	}
	for _, h := range headers {
		if err := f.SetCellValue(sheetName, h.col+"1", h.title); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	linkStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "1265BE", Underline: "single"},
	})
	if err != nil {
		return nil, fmt.Errorf("create hyperlink style: %w", err)
	}

	for i, rec := range records {
		row := i + 2

		text := rec.ContentText
		if text == "" {
			text = fmt.Sprintf("(%s)", rec.MessageType)
		}
		if err := f.SetCellValue(sheetName, cell(colMessage, row), text); err != nil {
			return nil, fmt.Errorf("write message cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell(colSentAt, row), rec.CreatedAt.UTC().Format("2006-01-02 15:04:05")); err != nil {
			return nil, fmt.Errorf("write timestamp cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell(colType, row), rec.MessageType); err != nil {
			return nil, fmt.Errorf("write type cell: %w", err)
		}

		if link, ok := telegram.ChannelMessageLink(rec.ChannelUsername, rec.ChannelMessageID); ok {
			linkCell := cell(colLink, row)
			if err := f.SetCellValue(sheetName, linkCell, "Open"); err != nil {
				return nil, fmt.Errorf("write link cell: %w", err)
			}
			if err := f.SetCellHyperLink(sheetName, linkCell, link, "External"); err != nil {
				return nil, fmt.Errorf("set hyperlink: %w", err)
			}
			if err := f.SetCellStyle(sheetName, linkCell, linkCell, linkStyle); err != nil {
				return nil, fmt.Errorf("style hyperlink: %w", err)
			}
		}

		s.embedMedia(ctx, f, rec, row)
	}

	return f, nil
}

func (s *Service) embedMedia(ctx context.Context, f *excelize.File, rec pgrepo.SubmissionRecord, row int) {
	if s.files == nil || rec.MediaFileID == "" {
		return
	}
	if rec.MessageType != telegram.TypePhoto && rec.MessageType != telegram.TypeSticker {
		return
	}

	data, ext, err := s.files.DownloadFile(ctx, rec.MediaFileID)
	if err != nil {
		s.logger.Warn("fetch media for export row",
			zap.Int64("submission_id", rec.ID),
			zap.Error(err),
		)
		return
	}

	err = f.AddPictureFromBytes(sheetName, cell(colPhoto, row), &excelize.Picture{
		Extension: ext,
		File:      data,
		Format:    &excelize.GraphicOptions{AutoFit: true},
	})
	if err != nil {
		// Unsupported formats (webp stickers) land here; the row stays.
		s.logger.Warn("embed media in export row",
			zap.Int64("submission_id", rec.ID),
			zap.Error(err),
		)
		return
	}

	if err := f.SetRowHeight(sheetName, row, 90); err != nil {
		s.logger.Warn("set export row height", zap.Error(err))
	}
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
