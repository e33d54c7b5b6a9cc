package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/blackwell-systems/diskscope/internal/dupes"
	"github.com/blackwell-systems/diskscope/internal/inventory"
)

// WriteJSON writes the full snapshot as indented JSON.
func WriteJSON(w io.Writer, snap *inventory.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// WriteCSV writes the snapshot as section,rank,path,size_bytes,percent rows
// covering the top directories, top files, and the complete extension
// histogram. When the snapshot retained its file list, one record row per
// file follows.
func WriteCSV(w io.Writer, snap *inventory.Snapshot) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"section", "rank", "path", "size_bytes", "percent"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	writeRow := func(section string, rank int, path string, size int64, withPercent bool) error {
		percent := ""
		if withPercent && snap.TotalSize > 0 {
			percent = strconv.FormatFloat(float64(size)/float64(snap.TotalSize)*100, 'f', 1, 64)
		}
		return cw.Write([]string{
			section,
			strconv.Itoa(rank),
			path,
			strconv.FormatInt(size, 10),
			percent,
		})
	}

	for i, entry := range snap.TopDirectories {
		if err := writeRow("directory", i+1, entry.Path, entry.Size, true); err != nil {
			return fmt.Errorf("failed to write directory row: %w", err)
		}
	}
	for i, entry := range snap.TopFiles {
		if err := writeRow("file", i+1, entry.Path, entry.Size, true); err != nil {
			return fmt.Errorf("failed to write file row: %w", err)
		}
	}
	for i, ext := range orderedExtensions(snap.Extensions) {
		if err := writeRow("extension", i+1, ext.name, ext.size, true); err != nil {
			return fmt.Errorf("failed to write extension row: %w", err)
		}
	}
	if snap.HasFileList() {
		for i, rec := range snap.Files {
			if err := writeRow("record", i+1, rec.Path, rec.Size, false); err != nil {
				return fmt.Errorf("failed to write record row: %w", err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// duplicateReport is the envelope for duplicate JSON export.
type duplicateReport struct {
	Groups                []dupes.Group `json:"groups"`
	TotalReclaimableBytes int64         `json:"total_reclaimable_bytes"`
}

// WriteDuplicatesJSON writes duplicate groups with a reclaimable total as
// indented JSON. No groups encodes as an empty array, not null.
func WriteDuplicatesJSON(w io.Writer, groups []dupes.Group) error {
	report := duplicateReport{Groups: groups}
	if report.Groups == nil {
		report.Groups = []dupes.Group{}
	}
	for _, g := range groups {
		report.TotalReclaimableBytes += g.ReclaimableBytes
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode duplicate report: %w", err)
	}
	return nil
}
