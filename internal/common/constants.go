package common

// GuestUserID is the sentinel owner id assigned to items created while the
// session is in guest mode.
const GuestUserID = "guest"

// Keys of the string-keyed blobs in the on-device store. One key per guest
// collection plus the persisted session state.
const (
	StorageKeyAuthToken   = "auth_token"
	StorageKeyUser        = "user"
	StorageKeyGuestMode   = "guest_mode"
	StorageKeyGuestNotes  = "guest_notes"
	StorageKeyGuestGroups = "guest_groups"
	StorageKeyGuestChat   = "guest_chat"
)
