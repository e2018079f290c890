package ingest

import (
	"github.com/harshGupta090722/Airtable-Connected-Dynamic-Form-Builder/internal/airtable"
)

// ChangedRecord is the canonical in-memory shape of one changed record,
// whatever wire representation it arrived in. TableID may be empty when
// the payload did not identify the table. Fields is empty, never nil,
// for deleted records.
type ChangedRecord struct {
	ID      string
	TableID string
	Deleted bool
	Fields  map[string]interface{}
}

// ExtractChangedRecords reduces one payload to canonical records. Both
// wire shapes may appear in the same payload and are walked in order:
// the per-table list shape first, then the per-table map shape. Records
// within a table keep their listed order; map-shape iteration order is
// not guaranteed by the provider either.
func ExtractChangedRecords(p *airtable.Payload) []ChangedRecord {
	var records []ChangedRecord

	for _, table := range p.ChangedTables {
		for _, rec := range table.Records {
			records = append(records, normalizeListRecord(rec, table.ID))
		}
	}

	for tableID, changes := range p.ChangedTablesByID {
		for recordID, change := range changes.ChangedRecordsByID {
			records = append(records, normalizeMapRecord(recordID, tableID, change))
		}
	}

	return records
}

// normalizeListRecord handles the list shape: the record entry is itself
// a full snapshot, optionally marked deleted.
func normalizeListRecord(rec airtable.ChangedRecord, tableID string) ChangedRecord {
	deleted := rec.Deleted || rec.ChangeType == "deleted"
	out := ChangedRecord{
		ID:      rec.ID,
		TableID: tableID,
		Deleted: deleted,
	}
	if deleted {
		out.Fields = map[string]interface{}{}
		return out
	}
	out.Fields = rec.Values()
	return out
}

// normalizeMapRecord handles the map shape. The snapshot lives under
// "current" for creates and updates; deletions omit it. Some payload
// variants flatten the snapshot into the change object itself, so a
// missing "current" only means deleted when the change object carries no
// field values of its own either.
func normalizeMapRecord(recordID, tableID string, change airtable.RecordChange) ChangedRecord {
	snapshot := change.Current
	if snapshot == nil && !change.RecordSnapshot.Empty() {
		snapshot = &change.RecordSnapshot
	}

	deleted := snapshot == nil || change.Deleted || change.ChangeType == "deleted"
	out := ChangedRecord{
		ID:      recordID,
		TableID: tableID,
		Deleted: deleted,
	}
	if deleted {
		out.Fields = map[string]interface{}{}
		return out
	}
	out.Fields = snapshot.Values()
	return out
}
