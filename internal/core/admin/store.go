package admin

import (
	"encoding/json"

	"ssp-admin/internal/ssp"
)

// NoIndex marks an empty selection or an inactive restore index.
const NoIndex = -1

// Store is the ordered record collection behind the template grid. It holds
// at most one selected record and the index to reselect after a reload.
//
// Store is not safe for concurrent use; it lives on the UI event loop.
type Store struct {
	records  []ssp.MessageTemplate
	selected int
	restore  int
}

func NewStore() *Store {
	return &Store{selected: NoIndex, restore: NoIndex}
}

// Load replaces the records. When the restore index points at a valid row
// that row becomes selected; otherwise the selection is cleared.
func (s *Store) Load(records []ssp.MessageTemplate) {
	s.records = append([]ssp.MessageTemplate(nil), records...)
	s.selected = NoIndex
	if s.restore >= 0 && s.restore < len(s.records) {
		s.selected = s.restore
	}
}

func (s *Store) Len() int { return len(s.records) }

// At returns the record at i. It panics when i is out of range.
func (s *Store) At(i int) ssp.MessageTemplate { return s.records[i] }

// Records returns a copy of all records in order.
func (s *Store) Records() []ssp.MessageTemplate {
	return append([]ssp.MessageTemplate(nil), s.records...)
}

// IndexOf returns the position of the record with the given id, or NoIndex.
func (s *Store) IndexOf(id int) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return NoIndex
}

// Select makes row i the single selection and remembers it for the next
// Load. Out-of-range indices clear the selection.
func (s *Store) Select(i int) {
	if i < 0 || i >= len(s.records) {
		s.ClearSelection()
		return
	}
	s.selected = i
	s.restore = i
}

// ClearSelection deselects without touching the restore index.
func (s *Store) ClearSelection() { s.selected = NoIndex }

// SelectedIndex returns the selected row or NoIndex.
func (s *Store) SelectedIndex() int { return s.selected }

// Selection returns the selected record, if any.
func (s *Store) Selection() (ssp.MessageTemplate, bool) {
	if s.selected < 0 || s.selected >= len(s.records) {
		return ssp.MessageTemplate{}, false
	}
	return s.records[s.selected], true
}

// SelectionConsumed deactivates the restore index. Edit and Preview send it
// on every invocation so a later reload does not re-highlight the row.
func (s *Store) SelectionConsumed() { s.restore = NoIndex }

// RestoreIndex is the row Load will reselect, or NoIndex.
func (s *Store) RestoreIndex() int { return s.restore }

// SetRestoreIndex points the next Load at row i.
func (s *Store) SetRestoreIndex(i int) {
	if i < 0 {
		i = NoIndex
	}
	s.restore = i
}

// TemplateData flattens the store into the plain objects the server sent,
// for export. Records without a server payload are marshalled from their
// fields.
func (s *Store) TemplateData() ([]map[string]any, error) {
	return TemplateData(s.records)
}

// TemplateData flattens records into plain objects.
func TemplateData(records []ssp.MessageTemplate) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		raw := r.Raw()
		if len(raw) == 0 {
			b, err := json.Marshal(r)
			if err != nil {
				return nil, err
			}
			raw = b
		}
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		out = append(out, obj)
	}
	return out, nil
}
