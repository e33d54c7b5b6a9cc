// Package dupes identifies groups of files with identical content. Hashing
// is the expensive step, so the detector narrows candidates first: a size
// floor, hard-link collapsing, and exact-size bucketing all run before any
// bytes are read.
package dupes

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/blackwell-systems/diskscope/internal/inventory"
	"github.com/blackwell-systems/diskscope/internal/platform"
)

// DefaultMinSize is the smallest file the detector considers by default,
// 1 MiB. Tiny files rarely reclaim meaningful space.
const DefaultMinSize int64 = 1 << 20

// hashChunkSize bounds the buffer used while streaming file content, so
// memory use never depends on file size.
const hashChunkSize = 64 * 1024

// Group is a set of at least two paths confirmed to hold identical bytes.
// All but one member are reclaimable.
type Group struct {
	Size             int64    `json:"size"`
	ContentHash      string   `json:"content_hash"`
	Members          []string `json:"members"`
	ReclaimableBytes int64    `json:"reclaimable_bytes"`
}

// Detector finds duplicate content within one snapshot's file list.
type Detector struct {
	policy platform.Policy
	log    *zap.Logger
}

// New creates a Detector with the given platform policy. A nil logger
// disables logging.
func New(policy platform.Policy, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{policy: policy, log: logger}
}

// linkGroup is one physical content: the representative that gets hashed
// plus every path reaching the same bytes.
type linkGroup struct {
	size    int64
	rep     string
	members []string
}

// FindDuplicates returns every confirmed duplicate group among files,
// ordered by descending reclaimable bytes. Files below minSize and
// symlinks are ignored. Read failures drop the affected file, never the
// detection run; only context cancellation aborts.
func (d *Detector) FindDuplicates(ctx context.Context, files []inventory.FileRecord, minSize int64) ([]Group, error) {
	if minSize < 0 {
		minSize = 0
	}

	// Stage 1: size floor. Symlinks are dropped too; hashing through one
	// would count its target's bytes twice.
	candidates := make([]inventory.FileRecord, 0, len(files))
	for _, rec := range files {
		if rec.IsSymlink || rec.Size < minSize {
			continue
		}
		candidates = append(candidates, rec)
	}

	// Stage 2: collapse hard links so shared content is hashed once.
	groups := d.collapseLinks(candidates)

	// Stage 3: exact-size buckets. A bucket reaching fewer than two paths
	// cannot contain a duplicate and is discarded unhashed.
	buckets := make(map[int64][]linkGroup)
	for _, g := range groups {
		buckets[g.size] = append(buckets[g.size], g)
	}

	var out []Group
	for size, bucket := range buckets {
		paths := 0
		for _, g := range bucket {
			paths += len(g.members)
		}
		if paths < 2 {
			continue
		}

		confirmed, err := d.confirmBucket(ctx, size, bucket)
		if err != nil {
			return nil, err
		}
		out = append(out, confirmed...)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ReclaimableBytes != out[j].ReclaimableBytes {
			return out[i].ReclaimableBytes > out[j].ReclaimableBytes
		}
		return out[i].Members[0] < out[j].Members[0]
	})

	return out, nil
}

// collapseLinks groups records by link identity where the platform provides
// one. The lexically smallest path becomes the hashing representative so
// results do not depend on input order.
func (d *Detector) collapseLinks(records []inventory.FileRecord) []linkGroup {
	if !d.policy.SupportsLinkIdentity() {
		out := make([]linkGroup, 0, len(records))
		for _, rec := range records {
			out = append(out, linkGroup{size: rec.Size, rep: rec.Path, members: []string{rec.Path}})
		}
		return out
	}

	byIdentity := make(map[inventory.LinkIdentity]*linkGroup)
	var out []linkGroup

	for _, rec := range records {
		if rec.Links == nil {
			out = append(out, linkGroup{size: rec.Size, rep: rec.Path, members: []string{rec.Path}})
			continue
		}

		if g, ok := byIdentity[*rec.Links]; ok {
			g.members = append(g.members, rec.Path)
			if rec.Path < g.rep {
				g.rep = rec.Path
			}
			continue
		}
		byIdentity[*rec.Links] = &linkGroup{size: rec.Size, rep: rec.Path, members: []string{rec.Path}}
	}

	for _, g := range byIdentity {
		out = append(out, *g)
	}
	return out
}

// confirmBucket hashes one representative per link group and merges groups
// whose digests agree. A group whose representative cannot be read is
// dropped from the bucket; its siblings are still considered.
func (d *Detector) confirmBucket(ctx context.Context, size int64, bucket []linkGroup) ([]Group, error) {
	byDigest := make(map[string][]linkGroup)
	buf := make([]byte, hashChunkSize)

	for _, g := range bucket {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		digest, err := hashFile(g.rep, buf)
		if err != nil {
			d.log.Debug("failed to hash file", zap.String("path", g.rep), zap.Error(err))
			continue
		}
		byDigest[digest] = append(byDigest[digest], g)
	}

	var out []Group
	for digest, groups := range byDigest {
		var members []string
		for _, g := range groups {
			members = append(members, g.members...)
		}
		if len(members) < 2 {
			continue
		}
		sort.Strings(members)

		out = append(out, Group{
			Size:             size,
			ContentHash:      digest,
			Members:          members,
			ReclaimableBytes: size * int64(len(members)-1),
		})
	}
	return out, nil
}

// hashFile streams path through sha256 in fixed-size chunks. The handle
// lives exactly as long as the read.
func hashFile(path string, buf []byte) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
