package protocol

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultNamespace is what an identifier without an explicit namespace means.
const DefaultNamespace = "minecraft"

// Identifier is a namespaced name of the form namespace:name.
//
// An empty Namespace is "unset": decoding "stone" keeps it unset, and every
// other operation (String, Equal, encoding) treats unset as DefaultNamespace.
type Identifier struct {
	Namespace string
	Name      string
}

// ParseIdentifier splits s at its colon and validates both parts.
func ParseIdentifier(s string) (Identifier, error) {
	var id Identifier
	if ns, name, ok := strings.Cut(s, ":"); ok {
		id = Identifier{Namespace: ns, Name: name}
	} else {
		id = Identifier{Name: s}
	}
	if err := id.Validate(); err != nil {
		return Identifier{}, err
	}
	return id, nil
}

// MustIdentifier is ParseIdentifier for compiled-in constants.
func MustIdentifier(s string) Identifier {
	id, err := ParseIdentifier(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id Identifier) Validate() error {
	if id.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidIdentifier)
	}
	for _, c := range id.Namespace {
		if !isNamespaceRune(c) {
			return fmt.Errorf("%w: namespace %q", ErrInvalidIdentifier, id.Namespace)
		}
	}
	for _, c := range id.Name {
		if !isNamespaceRune(c) && c != '/' {
			return fmt.Errorf("%w: name %q", ErrInvalidIdentifier, id.Name)
		}
	}
	return nil
}

// ResolvedNamespace returns the namespace with the default applied.
func (id Identifier) ResolvedNamespace() string {
	if id.Namespace == "" {
		return DefaultNamespace
	}
	return id.Namespace
}

func (id Identifier) String() string {
	return id.ResolvedNamespace() + ":" + id.Name
}

func (id Identifier) Equal(other Identifier) bool {
	return id.ResolvedNamespace() == other.ResolvedNamespace() && id.Name == other.Name
}

func isNamespaceRune(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' || c == '-' || c == '.'
}

// UUID is a 128-bit identifier carried as two big-endian halves.
type UUID struct {
	Most  uint64
	Least uint64
}

func UUIDFromGoogle(u uuid.UUID) UUID {
	return UUID{
		Most:  binary.BigEndian.Uint64(u[0:8]),
		Least: binary.BigEndian.Uint64(u[8:16]),
	}
}

func (u UUID) Google() uuid.UUID {
	var out uuid.UUID
	binary.BigEndian.PutUint64(out[0:8], u.Most)
	binary.BigEndian.PutUint64(out[8:16], u.Least)
	return out
}

func (u UUID) String() string {
	return u.Google().String()
}

// OfflinePlayerUUID derives the name-based (version 3) uuid that offline-mode
// servers assign: MD5 over "OfflinePlayer:<name>" with no namespace prefix.
func OfflinePlayerUUID(name string) UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + name))
	sum[6] = sum[6]&0x0f | 0x30
	sum[8] = sum[8]&0x3f | 0x80
	return UUIDFromGoogle(uuid.UUID(sum))
}
