package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"uv-mask-maker/internal/mesh"
	"uv-mask-maker/internal/session"
	"uv-mask-maker/internal/testmesh"
	"uv-mask-maker/internal/texture"
)

func newTestServer(t *testing.T, maxSessions int) *httptest.Server {
	t.Helper()
	st := session.DefaultSettings()
	st.Size = 16
	st.Margin = 0
	st.Seams = false
	srv := httptest.NewServer(New(Options{Settings: st, MaxSessions: maxSessions}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func objBody(t *testing.T, s *mesh.Snapshot) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := mesh.WriteOBJ(&buf, s); err != nil {
		t.Fatalf("write obj: %v", err)
	}
	return &buf
}

func createSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/sessions?format=obj", "text/plain", objBody(t, testmesh.TwoIslands()))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var out struct {
		ID      string       `json:"id"`
		Session session.Info `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Session.Islands != 2 {
		t.Errorf("expected 2 islands, got %d", out.Session.Islands)
	}
	return out.ID
}

func image16(c color.NRGBA) *image.NRGBA {
	return texture.Solid(16, 16, c)
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeInfo(t *testing.T, resp *http.Response) session.Info {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var info session.Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return info
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, 4)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestCreateErrors(t *testing.T) {
	srv := newTestServer(t, 4)
	resp, _ := http.Post(srv.URL+"/sessions?format=fbx", "text/plain", strings.NewReader(""))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown format, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, _ = http.Post(srv.URL+"/sessions", "text/plain", strings.NewReader("v 0 0 0\nf 1 2 3\n"))
	if resp.StatusCode < 400 {
		t.Errorf("expected error for bad OBJ, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(t, 4)
	resp, _ := http.Get(srv.URL + "/sessions/" + uuid.NewString())
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, _ = http.Get(srv.URL + "/sessions/not-a-uuid")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPickAndSelection(t *testing.T) {
	srv := newTestServer(t, 4)
	id := createSession(t, srv)
	base := srv.URL + "/sessions/" + id

	resp := postJSON(t, base+"/pick", map[string]int{"triangle": 3})
	var pick struct {
		Hit      bool `json:"hit"`
		Island   int  `json:"island"`
		Selected bool `json:"selected"`
	}
	json.NewDecoder(resp.Body).Decode(&pick)
	resp.Body.Close()
	if !pick.Hit || pick.Island != 1 || !pick.Selected {
		t.Errorf("unexpected pick %+v", pick)
	}

	info := decodeInfo(t, postJSON(t, base+"/selection/invert", nil))
	if len(info.Selected) != 1 || info.Selected[0] != 0 {
		t.Errorf("expected [0] after invert, got %v", info.Selected)
	}
	info = decodeInfo(t, postJSON(t, base+"/selection/toggle?island=1", nil))
	if len(info.Selected) != 2 {
		t.Errorf("expected both islands after toggle, got %v", info.Selected)
	}
	info = decodeInfo(t, postJSON(t, base+"/selection/set", map[string][]int{"islands": {1}}))
	if len(info.Selected) != 1 || info.Selected[0] != 1 {
		t.Errorf("expected [1] after set, got %v", info.Selected)
	}
	info = decodeInfo(t, postJSON(t, base+"/selection/clear", nil))
	if len(info.Selected) != 0 {
		t.Errorf("expected empty selection, got %v", info.Selected)
	}

	resp = postJSON(t, base+"/selection/bogus", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown op, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestModeToggle(t *testing.T) {
	srv := newTestServer(t, 4)
	base := srv.URL + "/sessions/" + createSession(t, srv)

	resp, _ := http.Post(base+"/mode", "application/json", nil)
	var out map[string]string
	json.NewDecoder(resp.Body).Decode(&out)
	resp.Body.Close()
	if out["mode"] != "remove" {
		t.Errorf("expected remove after toggle, got %q", out["mode"])
	}
	resp = postJSON(t, base+"/mode", map[string]string{"mode": "add"})
	json.NewDecoder(resp.Body).Decode(&out)
	resp.Body.Close()
	if out["mode"] != "add" {
		t.Errorf("expected add, got %q", out["mode"])
	}
}

func TestMaskEndpoint(t *testing.T) {
	srv := newTestServer(t, 4)
	base := srv.URL + "/sessions/" + createSession(t, srv)
	decodeInfo(t, postJSON(t, base+"/selection/add?island=0", nil))

	resp, err := http.Get(base + "/mask?size=32")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("expected png, got %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 32 {
		t.Errorf("expected 32px mask, got %v", img.Bounds())
	}
	c := color.NRGBAModel.Convert(img.At(4, 16)).(color.NRGBA)
	if c != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("expected selected pixel black, got %v", c)
	}

	bad, _ := http.Get(base + "/mask?size=3")
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for tiny size, got %d", bad.StatusCode)
	}
	bad.Body.Close()

	bad, _ = http.Get(base + "/mask?format=gif")
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for gif, got %d", bad.StatusCode)
	}
	bad.Body.Close()
}

func TestMaskWithBase(t *testing.T) {
	srv := newTestServer(t, 4)
	base := srv.URL + "/sessions/" + createSession(t, srv)
	decodeInfo(t, postJSON(t, base+"/selection/all", nil))

	src := image16(color.NRGBA{255, 255, 0, 255})
	var body bytes.Buffer
	png.Encode(&body, src)
	resp, err := http.Post(base+"/mask?channels=r", "image/png", &body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, data)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	c := color.NRGBAModel.Convert(img.At(4, 8)).(color.NRGBA)
	if c != (color.NRGBA{0, 255, 0, 255}) {
		t.Errorf("expected R cleared over base, got %v", c)
	}
}

func TestPreviewWebP(t *testing.T) {
	srv := newTestServer(t, 4)
	base := srv.URL + "/sessions/" + createSession(t, srv)
	resp, err := http.Get(base + "/preview?format=webp&seams=true")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/webp" {
		t.Errorf("expected webp preview, got %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
}

func TestIslandsAndSettings(t *testing.T) {
	srv := newTestServer(t, 4)
	base := srv.URL + "/sessions/" + createSession(t, srv)

	req, _ := http.NewRequest(http.MethodPut, base+"/settings", strings.NewReader(`{"size": 64, "channels": "ga"}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	info := decodeInfo(t, resp)
	if info.Size != 64 || info.Channels != "ga" || !info.ChannelMode {
		t.Errorf("unexpected settings %+v", info)
	}

	resp, err = http.Get(base + "/islands")
	if err != nil {
		t.Fatalf("get islands: %v", err)
	}
	defer resp.Body.Close()
	var islands []islandInfo
	json.NewDecoder(resp.Body).Decode(&islands)
	if len(islands) != 2 {
		t.Fatalf("expected 2 islands, got %d", len(islands))
	}
	if islands[1].UVMin[0] != 0.5 || islands[1].Pixels == 0 || islands[0].Triangles != 2 {
		t.Errorf("unexpected island info %+v", islands[1])
	}
}

func TestVertexColors(t *testing.T) {
	srv := newTestServer(t, 4)
	base := srv.URL + "/sessions/" + createSession(t, srv)
	decodeInfo(t, postJSON(t, base+"/selection/add", map[string][]int{"islands": {1}}))

	resp := postJSON(t, base+"/vertex-colors", nil)
	var out struct {
		Colors [][4]uint8 `json:"colors"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	resp.Body.Close()
	if len(out.Colors) != 8 {
		t.Fatalf("expected 8 colors, got %d", len(out.Colors))
	}
	if out.Colors[0] != [4]uint8{255, 255, 255, 255} || out.Colors[4] != [4]uint8{0, 0, 0, 255} {
		t.Errorf("unexpected colors %v", out.Colors)
	}

	// a base only takes part in channel-wise bakes
	req, _ := http.NewRequest(http.MethodPut, base+"/settings", strings.NewReader(`{"channel_write": true}`))
	put, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	put.Body.Close()

	resp = postJSON(t, base+"/vertex-colors", map[string]any{"base": [][4]uint8{{1, 2, 3, 4}}})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for count mismatch, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, base+"/vertex-colors?format=obj", nil)
	defer resp.Body.Close()
	baked, err := mesh.ParseOBJ(resp.Body)
	if err != nil {
		t.Fatalf("parse baked obj: %v", err)
	}
	if !baked.HasColors() {
		t.Error("expected baked OBJ to carry vertex colors")
	}
}

func TestDeleteAndEviction(t *testing.T) {
	srv := newTestServer(t, 2)
	first := createSession(t, srv)
	second := createSession(t, srv)
	third := createSession(t, srv)

	resp, _ := http.Get(srv.URL + "/sessions/" + first)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected oldest session evicted, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/"+second, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, _ = http.Get(srv.URL + "/sessions/" + third)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected newest session alive, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestBodyLimit(t *testing.T) {
	st := session.DefaultSettings()
	srv := httptest.NewServer(New(Options{Settings: st, MaxSessions: 1, MaxBodyBytes: 16}).Handler())
	defer srv.Close()
	resp, _ := http.Post(srv.URL+"/sessions", "text/plain", objBody(t, testmesh.TwoIslands()))
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
