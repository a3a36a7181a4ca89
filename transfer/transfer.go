// Package transfer uploads dataset files to the platform through the
// four-step transfer protocol: acquire a write location, write the bytes,
// register metadata, read back the assigned record version. Uploads for a
// directory run with bounded fan-out; each file's protocol runs to
// completion independently.
package transfer

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/osdu-tools/dataload/client"
	"github.com/osdu-tools/dataload/errors"
	"github.com/osdu-tools/dataload/logger"
	"github.com/osdu-tools/dataload/retry"
)

// DefaultIncludes are the dataset file patterns uploaded from a source
// directory; everything else in the tree is manifest/bookkeeping data.
var DefaultIncludes = []string{"*.pdf", "*.csv", "*.las", "*.txt"}

// Uploader runs the four-step protocol against the platform.
type Uploader struct {
	Client  *client.Client
	Retryer *retry.Retryer

	// Metadata stamped on every registered file.
	LegalTag  string
	ACLViewer string
	ACLOwner  string

	// Workers bounds the upload fan-out. Zero means 2x the available
	// processor count.
	Workers int

	// Includes overrides DefaultIncludes when non-empty.
	Includes []string

	Log logger.Logger
}

// Progress is the shared upload counter handed to each concurrent unit
// of work.
type Progress struct {
	uploaded atomic.Int64
	failed   atomic.Int64
}

func (p *Progress) success() { p.uploaded.Add(1) }

func (p *Progress) failure() { p.failed.Add(1) }

// Counts returns the uploaded/failed totals so far.
func (p *Progress) Counts() (uploaded, failed int) {
	return int(p.uploaded.Load()), int(p.failed.Load())
}

// UploadDirectory uploads every matching file under dir and returns the
// location map of successful uploads plus the paths that failed. A file
// failure never aborts the directory; a ctx cancellation stops new work
// from starting.
func (u *Uploader) UploadDirectory(ctx context.Context, dir string) (LocationMap, []string, error) {
	log := u.Log
	if log == nil {
		log = logger.NopLogger
	}
	files, err := u.listFiles(dir)
	if err != nil {
		return nil, nil, err
	}
	workers := u.Workers
	if workers <= 0 {
		workers = 2 * runtime.GOMAXPROCS(0)
	}
	log.Infof("uploading %d files from %s with %d workers", len(files), dir, workers)

	var (
		progress Progress
		mu       sync.Mutex
		locs     = LocationMap{}
		failed   []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range files {
		path := path
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			loc, err := u.uploadFile(gctx, path)
			name := filepath.Base(path)
			mu.Lock()
			if err != nil {
				progress.failure()
				failed = append(failed, path)
				log.Errorf("file upload failed: %s: %v", path, err)
			} else {
				progress.success()
				locs[name] = *loc
				log.Infof("file upload completed: %s", name)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil && len(locs) == 0 && len(failed) == 0 {
		return nil, nil, err
	}
	uploaded, failedCount := progress.Counts()
	log.Infof("uploaded %d files, %d failed", uploaded, failedCount)
	return locs, failed, nil
}

// uploadFile runs the four protocol steps for one file. Each step is
// independently retryable; any step failing fails the whole upload with
// the furthest-reached diagnostic. One correlation id spans all steps.
func (u *Uploader) uploadFile(ctx context.Context, path string) (*FileLocation, error) {
	corrID := client.NewCorrelationID("file-upload")
	log := u.Log
	if log == nil {
		log = logger.NopLogger
	}
	log = log.WithPrefix("[" + corrID + "] ")

	name := filepath.Base(path)
	description := filepath.Base(filepath.Dir(path))

	// Step 1: acquire a write location.
	var loc *client.UploadLocation
	err := u.Retryer.Execute(ctx, "requesting upload URL", func(ctx context.Context) error {
		var err error
		loc, err = u.Client.GetUploadURL(ctx, corrID)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "acquiring write location for %s", name)
	}
	log.Debugf("received signed URL for %s", name)

	// Step 2: write the bytes.
	err = u.Retryer.Execute(ctx, "writing file bytes", func(ctx context.Context) error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "opening %s", path)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return errors.Wrapf(err, "statting %s", path)
		}
		return u.Client.PutSignedURL(ctx, loc.Location.SignedURL, f, info.Size())
	})
	if err != nil {
		return nil, errors.Wrapf(err, "writing bytes of %s", name)
	}
	log.Debugf("wrote %s to blob storage", name)

	// Step 3: register metadata.
	meta := u.fileMetadata(loc.Location.FileSource, name, description)
	var recordID string
	err = u.Retryer.Execute(ctx, "registering file metadata", func(ctx context.Context) error {
		var err error
		recordID, err = u.Client.PostFileMetadata(ctx, meta, corrID)
		return err
	})
	if err != nil {
		// The blob exists with no metadata record now; report it, the
		// platform has no cross-step transaction to lean on.
		return nil, errors.Wrapf(err, "registering metadata of %s (bytes already written)", name)
	}
	log.Debugf("registered metadata of %s as %s", name, recordID)

	// Step 4: read back the assigned version.
	var version string
	err = u.Retryer.Execute(ctx, "reading record version", func(ctx context.Context) error {
		var err error
		version, err = u.Client.GetRecordVersion(ctx, recordID, corrID)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "reading record version of %s (metadata already registered as %s)", name, recordID)
	}

	return &FileLocation{
		FileID:            recordID,
		FileSource:        loc.Location.FileSource,
		FileRecordVersion: version,
		Description:       description,
	}, nil
}

// fileMetadata builds the descriptive metadata registered in step 3.
func (u *Uploader) fileMetadata(fileSource, fileName, description string) map[string]interface{} {
	fileType := strings.ToUpper(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if fileType == "LAS" {
		fileType = "LAS2"
	}
	return map[string]interface{}{
		"kind": "osdu:wks:dataset--File.Generic:1.0.0",
		"acl": map[string]interface{}{
			"viewers": []string{u.ACLViewer},
			"owners":  []string{u.ACLOwner},
		},
		"legal": map[string]interface{}{
			"legaltags":                  []string{u.LegalTag},
			"otherRelevantDataCountries": []string{"US"},
			"status":                     "compliant",
		},
		"data": map[string]interface{}{
			"Description":        description,
			"SchemaFormatTypeID": "osdu:reference-data--SchemaFormatType:" + fileType + ":",
			"DatasetProperties": map[string]interface{}{
				"FileSourceInfo": map[string]interface{}{
					"FileSource": fileSource,
					"Name":       fileName,
				},
			},
			"Name": fileName,
		},
	}
}

func (u *Uploader) listFiles(dir string) ([]string, error) {
	includes := u.Includes
	if len(includes) == 0 {
		includes = DefaultIncludes
	}
	patterns := make([]*regexp.Regexp, len(includes))
	for i, glob := range includes {
		patterns[i] = globToRegexp(glob)
	}
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		for _, p := range patterns {
			if p.MatchString(info.Name()) {
				files = append(files, path)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Newf(errors.ErrConfig, "walking %s: %v", dir, err)
	}
	return files, nil
}

func globToRegexp(glob string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile("(?i)" + b.String())
}
