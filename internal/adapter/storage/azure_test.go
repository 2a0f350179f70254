package storage

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	appconfig "github.com/semmidev/pusher/internal/config"
	"github.com/semmidev/pusher/internal/domain"
)

const (
	fakeAzureAccount = "devstoreaccount1"
	fakeAzureKey     = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="
)

// fakeAzure serves container properties and the block upload protocol
// (Put Block, Put Block List) for a single container.
type fakeAzure struct {
	mu            sync.Mutex
	container     string
	containerCode int
	containerErr  string
	blockCode     int
	staged        map[string]map[string][]byte
	objects       map[string][]byte
}

func newFakeAzure(container string) *fakeAzure {
	return &fakeAzure{
		container:     container,
		containerCode: http.StatusOK,
		blockCode:     http.StatusCreated,
		staged:        map[string]map[string][]byte{},
		objects:       map[string][]byte{},
	}
}

func (f *fakeAzure) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/"+fakeAzureAccount+"/")
	container, key, _ := strings.Cut(path, "/")
	query := r.URL.Query()

	if container != f.container {
		azureError(w, http.StatusNotFound, "ContainerNotFound")
		return
	}

	switch {
	case r.Method == http.MethodHead && key == "" && query.Get("restype") == "container":
		if f.containerCode != http.StatusOK {
			azureError(w, f.containerCode, f.containerErr)
			return
		}
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPut && query.Get("comp") == "block":
		data, _ := io.ReadAll(r.Body)
		if f.blockCode != http.StatusCreated {
			azureError(w, f.blockCode, "InternalError")
			return
		}
		if f.staged[key] == nil {
			f.staged[key] = map[string][]byte{}
		}
		f.staged[key][query.Get("blockid")] = data
		w.WriteHeader(http.StatusCreated)

	case r.Method == http.MethodPut && query.Get("comp") == "blocklist":
		var list struct {
			Latest []string `xml:"Latest"`
		}
		if err := xml.NewDecoder(r.Body).Decode(&list); err != nil {
			azureError(w, http.StatusBadRequest, "InvalidXmlDocument")
			return
		}
		var blob bytes.Buffer
		for _, id := range list.Latest {
			blob.Write(f.staged[key][id])
		}
		f.objects[key] = blob.Bytes()
		delete(f.staged, key)
		w.WriteHeader(http.StatusCreated)

	default:
		azureError(w, http.StatusNotImplemented, "NotImplemented")
	}
}

func azureError(w http.ResponseWriter, statusCode int, code string) {
	w.Header().Set("x-ms-error-code", code)
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?><Error><Code>` + code +
		`</Code><Message>` + http.StatusText(statusCode) + `</Message></Error>`))
}

func TestAzureStorage(t *testing.T) {
	Convey("Given an AzureStorage backed by a fake endpoint", t, func() {
		fake := newFakeAzure("backups")
		server := httptest.NewServer(fake)
		defer server.Close()

		cfg := appconfig.StorageConfig{
			Provider:     appconfig.ProviderAzure,
			AccessKey:    fakeAzureAccount,
			AccessSecret: fakeAzureKey,
			Bucket:       "backups",
			Endpoint:     server.URL + "/" + fakeAzureAccount + "/",
			MaxAttempts:  1,
		}
		stor := NewAzure(cfg)
		ctx := context.Background()

		Convey("Connect", func() {
			Convey("When the container exists", func() {
				So(stor.Connect(ctx), ShouldBeNil)
			})

			Convey("When the container is missing", func() {
				cfg.Bucket = "elsewhere"
				err := NewAzure(cfg).Connect(ctx)

				So(err, ShouldNotBeNil)
				So(errors.Is(err, domain.ErrBucketCheckDenied), ShouldBeFalse)
				So(err.Error(), ShouldContainSubstring, "container elsewhere does not exist")
			})

			Convey("When the credentials may only write blobs", func() {
				fake.containerCode = http.StatusForbidden
				fake.containerErr = "AuthorizationPermissionMismatch"
				err := stor.Connect(ctx)

				So(errors.Is(err, domain.ErrBucketCheckDenied), ShouldBeTrue)
			})
		})

		Convey("Upload", func() {
			So(stor.Connect(ctx), ShouldBeNil)

			Convey("When the server accepts the blocks", func() {
				err := stor.Upload(ctx, "backups/srv1/db.sql.gz", bytes.NewReader([]byte("dump")), 4)

				Convey("It should commit the body under the exact key", func() {
					So(err, ShouldBeNil)
					So(string(fake.objects["backups/srv1/db.sql.gz"]), ShouldEqual, "dump")
				})
			})

			Convey("When the server fails", func() {
				fake.blockCode = http.StatusInternalServerError
				err := stor.Upload(ctx, "backups/srv1/db.sql.gz", bytes.NewReader([]byte("dump")), 4)

				Convey("It should return an error and commit nothing", func() {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldContainSubstring, "failed to upload to Azure")
					So(fake.objects, ShouldBeEmpty)
				})
			})
		})
	})
}
