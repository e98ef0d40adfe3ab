package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"soundsmith/internal/models"
	tu "soundsmith/internal/testing"
)

func TestSongEndpoints(t *testing.T) {
	fx := newTestServer(t, &tu.MockGenerator{})

	neon := fx.seedSong(t, "Neon Nights")
	fx.seedSong(t, "Morning Mist")

	t.Run("List", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/api/songs", nil)
		wantStatus(t, rec, http.StatusOK)

		body := decodeBody[map[string][]songResponse](t, rec)
		if len(body["songs"]) != 2 {
			t.Errorf("expected 2 songs, got %d", len(body["songs"]))
		}
	})

	t.Run("Search", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/api/songs?search=neon", nil)
		wantStatus(t, rec, http.StatusOK)

		body := decodeBody[map[string][]songResponse](t, rec)
		if len(body["songs"]) != 1 || body["songs"][0].Title != "Neon Nights" {
			t.Errorf("unexpected search result: %+v", body["songs"])
		}
	})

	t.Run("SearchNoMatch", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/api/songs?search=zzz", nil)
		wantStatus(t, rec, http.StatusOK)

		body := decodeBody[map[string][]songResponse](t, rec)
		if len(body["songs"]) != 0 {
			t.Errorf("expected no results, got %+v", body["songs"])
		}
	})

	t.Run("Get", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/api/songs/"+neon.ID(), nil)
		wantStatus(t, rec, http.StatusOK)

		song := decodeBody[songResponse](t, rec)
		if song.Title != "Neon Nights" || song.Source != models.SongSourceImported {
			t.Errorf("unexpected song: %+v", song)
		}
	})

	t.Run("GetUnknown", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/api/songs/nope", nil)
		wantStatus(t, rec, http.StatusNotFound)
		wantErrorBody(t, rec)
	})

	t.Run("Patch", func(t *testing.T) {
		rec := fx.do(t, http.MethodPatch, "/api/songs/"+neon.ID(), map[string]any{
			"artist": "Harmonia",
			"tags":   "synthwave,retro",
		})
		wantStatus(t, rec, http.StatusOK)

		song := decodeBody[songResponse](t, rec)
		if song.Artist != "Harmonia" || song.Tags != "synthwave,retro" {
			t.Errorf("patch not applied: %+v", song)
		}
		if song.Title != "Neon Nights" {
			t.Errorf("untouched field changed: %q", song.Title)
		}
	})

	t.Run("PatchEmptyTitle", func(t *testing.T) {
		rec := fx.do(t, http.MethodPatch, "/api/songs/"+neon.ID(), map[string]any{
			"title": "  ",
		})
		wantStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("Audio", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/api/songs/"+neon.ID()+"/audio", nil)
		wantStatus(t, rec, http.StatusOK)
		if rec.Body.String() != "fake-audio-payload" {
			t.Errorf("unexpected audio body: %q", rec.Body.String())
		}
	})

	t.Run("AudioFileVanished", func(t *testing.T) {
		ghost := models.NewSong(0, "Ghost", "imports/gone.wav")
		if err := fx.songs.Create(ghost); err != nil {
			t.Fatal(err)
		}

		rec := fx.do(t, http.MethodGet, "/api/songs/"+ghost.ID()+"/audio", nil)
		wantStatus(t, rec, http.StatusNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		doomed := fx.seedSong(t, "Doomed")

		rec := fx.do(t, http.MethodDelete, "/api/songs/"+doomed.ID(), nil)
		wantStatus(t, rec, http.StatusNoContent)

		rec = fx.do(t, http.MethodGet, "/api/songs/"+doomed.ID(), nil)
		wantStatus(t, rec, http.StatusNotFound)
	})

	t.Run("DeleteUnknown", func(t *testing.T) {
		rec := fx.do(t, http.MethodDelete, "/api/songs/nope", nil)
		wantStatus(t, rec, http.StatusNotFound)
	})
}

func TestSongCreate(t *testing.T) {
	fx := newTestServer(t, &tu.MockGenerator{})

	// A file on disk that the scanner has not seen yet.
	rel, _, err := fx.store.Save("imports", "field-recording.wav", strings.NewReader("uncataloged-audio"))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("RegistersExistingFile", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/api/songs", map[string]any{
			"file_path": rel,
			"title":     "Field Recording",
			"artist":    "Unknown",
		})
		wantStatus(t, rec, http.StatusCreated)

		song := decodeBody[songResponse](t, rec)
		if song.ID == "" || song.Title != "Field Recording" {
			t.Errorf("unexpected song: %+v", song)
		}
		if song.SizeBytes != int64(len("uncataloged-audio")) {
			t.Errorf("expected size from disk, got %d", song.SizeBytes)
		}
		if song.Format != "wav" {
			t.Errorf("expected format from extension, got %q", song.Format)
		}
	})

	t.Run("RejectsDuplicatePath", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/api/songs", map[string]any{
			"file_path": rel,
		})
		wantStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("TitleDefaultsToFilename", func(t *testing.T) {
		other, _, err := fx.store.Save("imports", "take_two.wav", strings.NewReader("x"))
		if err != nil {
			t.Fatal(err)
		}

		rec := fx.do(t, http.MethodPost, "/api/songs", map[string]any{"file_path": other})
		wantStatus(t, rec, http.StatusCreated)

		song := decodeBody[songResponse](t, rec)
		if !strings.HasSuffix(song.Title, "take_two") {
			t.Errorf("expected filename-derived title, got %q", song.Title)
		}
	})

	t.Run("MissingPath", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/api/songs", map[string]any{"title": "No File"})
		wantStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("NoSuchFile", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/api/songs", map[string]any{
			"file_path": "imports/does-not-exist.wav",
		})
		wantStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("PathEscape", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/api/songs", map[string]any{
			"file_path": "../../etc/passwd",
		})
		wantStatus(t, rec, http.StatusBadRequest)
	})
}

func TestPlaylistEndpoints(t *testing.T) {
	fx := newTestServer(t, &tu.MockGenerator{})

	song := fx.seedSong(t, "Night Drive")

	var playlistID string

	t.Run("Create", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/api/playlists", map[string]any{
			"name":        "Late Night",
			"description": "for the drive home",
		})
		wantStatus(t, rec, http.StatusCreated)

		playlist := decodeBody[playlistResponse](t, rec)
		if playlist.ID == "" || playlist.Name != "Late Night" {
			t.Fatalf("unexpected playlist: %+v", playlist)
		}
		playlistID = playlist.ID
	})

	t.Run("CreateUnnamed", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/api/playlists", map[string]any{"name": "  "})
		wantStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("List", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/api/playlists", nil)
		wantStatus(t, rec, http.StatusOK)

		body := decodeBody[map[string][]playlistResponse](t, rec)
		if len(body["playlists"]) != 1 {
			t.Errorf("expected 1 playlist, got %d", len(body["playlists"]))
		}
	})

	t.Run("AddSong", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/api/playlists/"+playlistID+"/songs", map[string]any{
			"song_id": song.ID(),
		})
		wantStatus(t, rec, http.StatusCreated)
	})

	t.Run("AddSongTwice", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/api/playlists/"+playlistID+"/songs", map[string]any{
			"song_id": song.ID(),
		})
		wantStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("AddUnknownSong", func(t *testing.T) {
		rec := fx.do(t, http.MethodPost, "/api/playlists/"+playlistID+"/songs", map[string]any{
			"song_id": "nope",
		})
		wantStatus(t, rec, http.StatusNotFound)
	})

	t.Run("DetailIncludesSongs", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/api/playlists/"+playlistID, nil)
		wantStatus(t, rec, http.StatusOK)

		detail := decodeBody[playlistDetailResponse](t, rec)
		if detail.SongCount != 1 || len(detail.Songs) != 1 {
			t.Fatalf("expected 1 member, got %+v", detail)
		}
		if detail.Songs[0].Title != "Night Drive" {
			t.Errorf("unexpected member: %+v", detail.Songs[0])
		}
	})

	t.Run("Update", func(t *testing.T) {
		rec := fx.do(t, http.MethodPut, "/api/playlists/"+playlistID, map[string]any{
			"name":        "Late Late Night",
			"description": "",
		})
		wantStatus(t, rec, http.StatusOK)

		playlist := decodeBody[playlistResponse](t, rec)
		if playlist.Name != "Late Late Night" || playlist.Description != "" {
			t.Errorf("update not applied: %+v", playlist)
		}
	})

	t.Run("RemoveSong", func(t *testing.T) {
		rec := fx.do(t, http.MethodDelete, "/api/playlists/"+playlistID+"/songs/"+song.ID(), nil)
		wantStatus(t, rec, http.StatusNoContent)

		detail := decodeBody[playlistDetailResponse](t, fx.do(t, http.MethodGet, "/api/playlists/"+playlistID, nil))
		if detail.SongCount != 0 {
			t.Errorf("expected empty playlist, got %d members", detail.SongCount)
		}
	})

	t.Run("RemoveNonMember", func(t *testing.T) {
		rec := fx.do(t, http.MethodDelete, "/api/playlists/"+playlistID+"/songs/"+song.ID(), nil)
		wantStatus(t, rec, http.StatusNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		rec := fx.do(t, http.MethodDelete, "/api/playlists/"+playlistID, nil)
		wantStatus(t, rec, http.StatusNoContent)

		rec = fx.do(t, http.MethodGet, "/api/playlists/"+playlistID, nil)
		wantStatus(t, rec, http.StatusNotFound)
	})

	t.Run("UnknownPlaylist", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/api/playlists/nope", nil)
		wantStatus(t, rec, http.StatusNotFound)
	})
}

func TestPreferencesEndpoints(t *testing.T) {
	fx := newTestServer(t, &tu.MockGenerator{})

	t.Run("DefaultsOnFirstRead", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/api/preferences", nil)
		wantStatus(t, rec, http.StatusOK)

		prefs := decodeBody[models.Preferences](t, rec)
		if prefs.Theme != "dark" || prefs.DefaultModel != "harmonia-v1" {
			t.Errorf("unexpected defaults: %+v", prefs)
		}
	})

	t.Run("PartialPutKeepsDefaults", func(t *testing.T) {
		rec := fx.do(t, http.MethodPut, "/api/preferences", map[string]any{
			"theme":  "light",
			"volume": 0.5,
		})
		wantStatus(t, rec, http.StatusOK)

		prefs := decodeBody[models.Preferences](t, rec)
		if prefs.Theme != "light" || prefs.Volume != 0.5 {
			t.Errorf("put not applied: %+v", prefs)
		}
		if prefs.DefaultPreset != "standard" {
			t.Errorf("omitted field lost its default: %+v", prefs)
		}

		read := decodeBody[models.Preferences](t, fx.do(t, http.MethodGet, "/api/preferences", nil))
		if read.Theme != "light" {
			t.Errorf("put did not persist: %+v", read)
		}
	})

	t.Run("RejectsOutOfRange", func(t *testing.T) {
		rec := fx.do(t, http.MethodPut, "/api/preferences", map[string]any{"volume": 1.5})
		wantStatus(t, rec, http.StatusBadRequest)
	})
}

// uploadReference builds a multipart form with the given file and fields.
func uploadReference(t *testing.T, fx *serverFixture, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	return fx.doRaw(t, http.MethodPost, "/api/references", mw.FormDataContentType(), &buf)
}

func TestReferenceEndpoints(t *testing.T) {
	fx := newTestServer(t, &tu.MockGenerator{})

	payload := []byte("opaque-conditioning-audio")
	var refID string

	t.Run("Upload", func(t *testing.T) {
		rec := uploadReference(t, fx, "guitar-riff.wav", payload, map[string]string{"name": "Guitar Riff"})
		wantStatus(t, rec, http.StatusCreated)

		ref := decodeBody[referenceResponse](t, rec)
		if ref.ID == "" || ref.Name != "Guitar Riff" {
			t.Fatalf("unexpected reference: %+v", ref)
		}
		if ref.SizeBytes != int64(len(payload)) {
			t.Errorf("expected %d bytes, got %d", len(payload), ref.SizeBytes)
		}
		refID = ref.ID

		stored, err := fx.references.Get(refID)
		if err != nil {
			t.Fatalf("reference not persisted: %v", err)
		}
		abs, err := fx.store.Abs(stored.Path())
		if err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(abs); err != nil {
			t.Errorf("expected payload on disk: %v", err)
		}
	})

	t.Run("NameDefaultsToFilename", func(t *testing.T) {
		rec := uploadReference(t, fx, "drum-loop.wav", payload, nil)
		wantStatus(t, rec, http.StatusCreated)

		ref := decodeBody[referenceResponse](t, rec)
		if ref.Name != "drum-loop" {
			t.Errorf("expected filename-derived name, got %q", ref.Name)
		}
	})

	t.Run("MissingFilePart", func(t *testing.T) {
		rec := uploadReference(t, fx, "", nil, map[string]string{"name": "nothing"})
		wantStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("List", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/api/references", nil)
		wantStatus(t, rec, http.StatusOK)

		body := decodeBody[map[string][]referenceResponse](t, rec)
		if len(body["references"]) != 2 {
			t.Errorf("expected 2 references, got %d", len(body["references"]))
		}
	})

	t.Run("Audio", func(t *testing.T) {
		rec := fx.do(t, http.MethodGet, "/api/references/"+refID+"/audio", nil)
		wantStatus(t, rec, http.StatusOK)
		if !bytes.Equal(rec.Body.Bytes(), payload) {
			t.Errorf("unexpected audio body: %q", rec.Body.String())
		}
	})

	t.Run("SubmitWithReference", func(t *testing.T) {
		body := submitBody()
		body["reference_id"] = refID
		rec := fx.do(t, http.MethodPost, "/api/generate", body)
		wantStatus(t, rec, http.StatusOK)
	})

	t.Run("Delete", func(t *testing.T) {
		ref, err := fx.references.Get(refID)
		if err != nil {
			t.Fatal(err)
		}
		abs, err := fx.store.Abs(ref.Path())
		if err != nil {
			t.Fatal(err)
		}

		rec := fx.do(t, http.MethodDelete, "/api/references/"+refID, nil)
		wantStatus(t, rec, http.StatusNoContent)

		if _, err := os.Stat(abs); !os.IsNotExist(err) {
			t.Error("expected payload removed from disk")
		}

		rec = fx.do(t, http.MethodGet, "/api/references/"+refID+"/audio", nil)
		wantStatus(t, rec, http.StatusNotFound)
	})

	t.Run("DeleteUnknown", func(t *testing.T) {
		rec := fx.do(t, http.MethodDelete, "/api/references/nope", nil)
		wantStatus(t, rec, http.StatusNotFound)
	})
}
