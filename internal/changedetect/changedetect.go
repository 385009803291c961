// Package changedetect reconciles what the version-control backend reports
// as changed against what the store last recorded, producing the precise
// set of file-level changes the differential indexer needs to act on.
package changedetect

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"

	"github.com/hbollon/go-edlib"

	"github.com/mizchi/lsif-indexer/internal/store"
	"github.com/mizchi/lsif-indexer/internal/vcs"
)

// renameSimilarityThreshold is the minimum Jaro-Winkler basename similarity
// two candidate files must clear before a delete+add pair is reported as a
// rename instead.
const renameSimilarityThreshold = 0.85

// Kind classifies one file-level change the indexer must react to.
type Kind string

const (
	Added    Kind = "added"
	Modified Kind = "modified"
	Deleted  Kind = "deleted"
	Renamed  Kind = "renamed"
)

// Change is one file the indexer needs to re-extract, drop, or relocate.
type Change struct {
	Kind        Kind
	Path        string
	OldPath     string // set only for Renamed
	ContentHash uint64 // 0 for Deleted
}

// Detector reconciles a vcs.Source's candidate diff against the store's
// recorded content hashes.
type Detector struct {
	source vcs.Source
	store  *store.Store
	root   string
}

// New builds a Detector rooted at root (used to resolve VCS-relative paths
// to actual file content for hashing and rename comparison).
func New(source vcs.Source, st *store.Store, root string) *Detector {
	return &Detector{source: source, store: st, root: root}
}

// Detect computes the change set since the last indexed revision (read from
// the store's "last-revision" metadata key; absent means "index everything").
// It returns the changes and the new revision to record on successful
// commit — the caller is responsible for calling RecordRevision after the
// delta is durably applied, keeping detection and commit in the same cycle.
func (d *Detector) Detect(ctx context.Context) ([]Change, string, error) {
	lastRev, _, err := d.store.GetMetadata("last-revision")
	if err != nil {
		return nil, "", fmt.Errorf("changedetect: read last revision: %w", err)
	}

	currentRev, err := d.source.CurrentRevision(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("changedetect: current revision: %w", err)
	}

	candidates, err := d.source.ListChangesSince(ctx, lastRev)
	if err != nil {
		return nil, "", fmt.Errorf("changedetect: list changes: %w", err)
	}

	reconciled, err := d.reconcile(candidates)
	if err != nil {
		return nil, "", err
	}
	return d.detectRenames(reconciled), currentRev, nil
}

// RecordRevision persists the revision a completed indexing cycle advanced
// to, so the next Detect call only considers what changed afterward.
func (d *Detector) RecordRevision(rev string) error {
	return d.store.SetMetadata("last-revision", rev)
}

// reconcile turns the VCS's raw added/modified/deleted candidates into
// Changes carrying actual content hashes, dropping any "modified" report
// whose content hash in fact matches what's stored (a VCS diff can be a
// false positive after e.g. a mode-only change or a revert).
func (d *Detector) reconcile(candidates []vcs.Change) ([]Change, error) {
	out := make([]Change, 0, len(candidates))
	for _, c := range candidates {
		switch c.Kind {
		case vcs.ChangeDeleted:
			out = append(out, Change{Kind: Deleted, Path: c.Path})
			continue
		case vcs.ChangeAdded, vcs.ChangeModified:
			hash, err := hashFile(filepath.Join(d.root, c.Path))
			if os.IsNotExist(err) {
				// VCS reported it present but it's gone from the working
				// tree (e.g. an untracked delete between diff and scan).
				out = append(out, Change{Kind: Deleted, Path: c.Path})
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("changedetect: hash %s: %w", c.Path, err)
			}

			rec, known, err := d.store.GetFileRecord(c.Path)
			if err != nil {
				return nil, fmt.Errorf("changedetect: read file record %s: %w", c.Path, err)
			}
			if known && rec.ContentHash == hash {
				continue // VCS false positive: nothing actually changed
			}

			kind := Modified
			if !known {
				kind = Added
			}
			out = append(out, Change{Kind: kind, Path: c.Path, ContentHash: hash})
		}
	}
	return out, nil
}

// detectRenames collapses a Deleted/Added pair into a single Renamed change
// when either their content hash is identical, or (failing that) their
// basenames clear the Jaro-Winkler similarity threshold. Any Deleted or
// Added entry not paired this way passes through unchanged.
func (d *Detector) detectRenames(changes []Change) []Change {
	var deletes, adds, rest []Change
	for _, c := range changes {
		switch c.Kind {
		case Deleted:
			deletes = append(deletes, c)
		case Added:
			adds = append(adds, c)
		default:
			rest = append(rest, c)
		}
	}

	usedAdds := make(map[int]bool)
	var out []Change
	for _, del := range deletes {
		bestIdx := -1
		bestScore := 0.0
		prevRec, ok, _ := d.store.GetFileRecord(del.Path)

		for i, add := range adds {
			if usedAdds[i] {
				continue
			}
			if ok && prevRec.ContentHash == add.ContentHash {
				bestIdx, bestScore = i, 1.0
				break
			}
			score, err := edlib.StringsSimilarity(filepath.Base(del.Path), filepath.Base(add.Path), edlib.JaroWinkler)
			if err != nil {
				continue
			}
			if float64(score) > bestScore {
				bestIdx, bestScore = i, float64(score)
			}
		}

		if bestIdx >= 0 && bestScore >= renameSimilarityThreshold {
			usedAdds[bestIdx] = true
			out = append(out, Change{
				Kind:        Renamed,
				Path:        adds[bestIdx].Path,
				OldPath:     del.Path,
				ContentHash: adds[bestIdx].ContentHash,
			})
			continue
		}
		out = append(out, del)
	}

	for i, add := range adds {
		if !usedAdds[i] {
			out = append(out, add)
		}
	}
	out = append(out, rest...)
	return out
}

// hashFile computes a fast, non-cryptographic content digest (FNV-1a 64-bit)
// used purely for change detection, not integrity verification.
func hashFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := fnv.New64a()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
