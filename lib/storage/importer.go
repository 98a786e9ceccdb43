package storage

import (
	"github.com/BioHaZard1/mooltipass/lib/util"
)

const arenaOwnerImporter = "media-import"

// MediaImporter streams bulk media data into the media zone through the
// flash page buffer. The write cursor starts at the first media page and
// only ever moves forward; any write that would cross a page or zone
// boundary deactivates the import before failing, so a hostile stream
// can never touch the node zone.
type MediaImporter struct {
	flash Flash
	arena *Arena

	active bool
	page   uint16
	offset int
}

// NewMediaImporter creates an importer over the given flash and page buffer.
func NewMediaImporter(flash Flash, arena *Arena) *MediaImporter {
	return &MediaImporter{flash: flash, arena: arena}
}

// Active returns true while an import is in progress.
func (m *MediaImporter) Active() bool {
	return m.active
}

// Start claims the page buffer and rewinds the cursor to the start of
// the media zone. The caller has already authenticated the import.
func (m *MediaImporter) Start() error {
	if err := m.arena.Acquire(arenaOwnerImporter); err != nil {
		return err
	}
	if err := m.flash.LoadPage(MediaZoneStart); err != nil {
		m.arena.Release(arenaOwnerImporter)
		return err
	}
	m.active = true
	m.page = MediaZoneStart
	m.offset = 0
	return nil
}

// Write appends one chunk at the cursor, flushing the buffer whenever a
// page fills. A chunk that would run past the current page or past the
// end of the media zone aborts the whole import.
func (m *MediaImporter) Write(data []byte) error {
	if !m.active {
		return util.ErrNotApproved
	}
	if m.page >= MediaZoneEnd || m.offset+len(data) > BytesPerPage {
		m.abort()
		return util.ErrStorageBounds
	}
	if err := m.flash.WriteBuffer(data, m.offset); err != nil {
		m.abort()
		return err
	}
	m.offset += len(data)
	if m.offset == BytesPerPage {
		if err := m.flash.CommitPage(m.page); err != nil {
			m.abort()
			return err
		}
		m.page++
		m.offset = 0
		if m.page < MediaZoneEnd {
			if err := m.flash.LoadPage(m.page); err != nil {
				m.abort()
				return err
			}
		}
	}
	return nil
}

// End flushes any partially filled page and releases the buffer.
func (m *MediaImporter) End() error {
	if !m.active {
		return util.ErrNotApproved
	}
	var err error
	if m.offset > 0 && m.page < MediaZoneEnd {
		err = m.flash.CommitPage(m.page)
	}
	m.abort()
	return err
}

// Abort drops an in-progress import without flushing. Used on card
// removal and session teardown.
func (m *MediaImporter) Abort() {
	if m.active {
		m.abort()
	}
}

func (m *MediaImporter) abort() {
	m.active = false
	m.arena.Release(arenaOwnerImporter)
}
