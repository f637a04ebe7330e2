package gallery

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// metaFile is the per-folder metadata stub, written once at folder creation
// and never updated by the store. Operators may edit it by hand.
const metaFile = ".meta.json"

// groupsFile maps identities to group titles at the store root. Read-only
// to the store; maintained by the operator.
const groupsFile = "groups.json"

// defaultAvatar is the stub avatar referenced by freshly created folders.
const defaultAvatar = "noavatar.png"

// Meta is the per-folder metadata stub.
type Meta struct {
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// writeMetaStub seeds a new folder's metadata. O_EXCL keeps a concurrent
// first upload from clobbering a stub the other writer just produced.
func writeMetaStub(dir, identity string) error {
	f, err := os.OpenFile(filepath.Join(dir, metaFile), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(Meta{
		DisplayName: identity,
		AvatarURL:   defaultAvatar,
	})
}

// Meta reads a folder's metadata stub. Missing or malformed stubs report
// absent rather than failing the caller.
func (s *Store) Meta(identity string) (Meta, bool) {
	dir, err := s.folderPath(identity)
	if err != nil {
		return Meta{}, false
	}
	data, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		return Meta{}, false
	}
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return Meta{}, false
	}
	return m, true
}

// Groups reads the operator-maintained identity→group-title mapping from the
// store root. A missing or malformed file degrades to an empty map.
func (s *Store) Groups() map[string]string {
	data, err := os.ReadFile(filepath.Join(s.root, groupsFile))
	if err != nil {
		return map[string]string{}
	}
	groups := map[string]string{}
	if err := json.Unmarshal(data, &groups); err != nil {
		return map[string]string{}
	}
	return groups
}
