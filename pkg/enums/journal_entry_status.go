package enums

// JournalEntryStatus maps to the journal_entry_status_enum enum in Postgres.
type JournalEntryStatus string

const (
	JournalEntryStatusPosted   JournalEntryStatus = "posted"
	JournalEntryStatusReversed JournalEntryStatus = "reversed"
)

// IsValid reports whether the value matches the canonical entry status enum.
func (s JournalEntryStatus) IsValid() bool {
	return s == JournalEntryStatusPosted || s == JournalEntryStatusReversed
}
