package domain

// Transfer pairs one local backup file with the object key it is pushed to.
type Transfer struct {
	Filename  string
	RemoteKey string
}

// RemoteKey builds <prefix><accountID>/<filename>. Retention policies on the
// bucket match on this layout, so the parts are concatenated verbatim.
func RemoteKey(prefix, accountID, filename string) string {
	return prefix + accountID + "/" + filename
}

func NewTransfer(prefix, accountID, filename string) Transfer {
	return Transfer{
		Filename:  filename,
		RemoteKey: RemoteKey(prefix, accountID, filename),
	}
}
