package catalog

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/course-market-api/internal/models"
)

var exportHeader = []string{
	"id", "title", "category", "level", "price", "instructor_id",
	"approval_status", "is_published", "approved_by", "approved_at", "created_at",
}

// ExportCSV renders courses as CSV with a header row.
func ExportCSV(courses []models.Course) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, course := range courses {
		approvedBy := ""
		if course.ApprovedBy != nil {
			approvedBy = *course.ApprovedBy
		}
		approvedAt := ""
		if course.ApprovedAt != nil {
			approvedAt = course.ApprovedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			strconv.FormatUint(uint64(course.ID), 10),
			escapeFormula(course.Title),
			escapeFormula(course.Category),
			course.Level,
			strconv.FormatInt(course.Price, 10),
			course.InstructorID,
			string(course.ApprovalStatus),
			strconv.FormatBool(course.IsPublished),
			approvedBy,
			approvedAt,
			course.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// escapeFormula keeps spreadsheet applications from evaluating user text.
func escapeFormula(value string) string {
	if value == "" {
		return value
	}
	if strings.ContainsRune("=+-@", rune(value[0])) {
		return "'" + value
	}
	return value
}
