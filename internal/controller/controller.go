package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"udctl/internal/config"
	"udctl/internal/errors"
	"udctl/internal/estimate"
	"udctl/internal/jobs"
	"udctl/internal/logging"
	"udctl/internal/metrics"
	"udctl/internal/prefs"
	"udctl/internal/provider"
	"udctl/internal/util"
)

// DownloadOptions is the option set for a start command, normally read from
// prefs. Locked provider profiles substitute their forced values before the
// request is built.
type DownloadOptions struct {
	Format      string
	Resolution  string
	QualityKbps int
	CustomName  string
}

// CompressOptions mirrors the backend's multipart form fields.
type CompressOptions struct {
	Percent      int
	Resolution   string
	DiscordMode  bool
	HardwareMode string
	CustomName   string
}

// InstagramSummary is what the backend reports about an Instagram post.
type InstagramSummary struct {
	IsCarousel bool `json:"is_carousel"`
	EntryCount int  `json:"entry_count"`
	VideoCount int  `json:"video_count"`
	ImageCount int  `json:"image_count"`
}

// Controller issues commands against the backend's HTTP surface. It moves jobs
// into requesting/running but never decides terminal phases; those belong to
// the status channel.
type Controller struct {
	cfg     *config.Config
	store   *jobs.Store
	prefs   *prefs.Store
	log     *logging.Logger
	metrics *metrics.Manager
	client  *http.Client
}

func New(cfg *config.Config, store *jobs.Store, ps *prefs.Store, log *logging.Logger, m *metrics.Manager) *Controller {
	return &Controller{
		cfg:     cfg,
		store:   store,
		prefs:   ps,
		log:     log,
		metrics: m,
		client:  &http.Client{Timeout: cfg.RequestTimeout()},
	}
}

// StartDownload runs the full start sequence for a single link: directory
// prompt, option resolution, POST /download. Progress after acceptance arrives
// only via the status channel. A dismissed directory prompt reverts silently.
func (c *Controller) StartDownload(ctx context.Context, rawURL string, opts DownloadOptions) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		c.metrics.IncCommands(true)
		return errors.Validation("Paste a link before starting a download.")
	}
	if !c.store.Begin(jobs.Download) {
		c.metrics.IncCommands(true)
		return errors.Validation("A download is already in progress.")
	}

	dir, err := c.SelectDir(ctx)
	if err != nil {
		c.store.Revert(jobs.Download)
		c.metrics.IncCommands(true)
		return err
	}
	if dir == "" {
		c.store.Revert(jobs.Download)
		return nil
	}

	profile := provider.ProfileFor(provider.Classify(rawURL))
	format, resolution, quality := opts.Format, opts.Resolution, opts.QualityKbps
	if profile.Locked {
		format = profile.ForcedFormat
		resolution = profile.ForcedResolution
		quality = profile.ForcedQuality
	}

	q := url.Values{}
	q.Set("url", rawURL)
	q.Set("target_dir", dir)
	q.Set("format", format)
	q.Set("resolution", resolution)
	q.Set("quality", strconv.Itoa(quality))
	if name := util.SanitizeName(opts.CustomName); name != "" {
		q.Set("filename", name)
	} else if strings.TrimSpace(opts.CustomName) != "" {
		c.log.Warnf("custom name %q sanitized to nothing, keeping the original title", opts.CustomName)
	}

	if err := c.postStatus(ctx, "start download", "/download?"+q.Encode(), "", nil); err != nil {
		c.settleFailure(jobs.Download, err)
		c.metrics.IncCommands(true)
		return err
	}
	c.store.MarkRunning(jobs.Download, "Starting download...")
	c.metrics.IncCommands(false)
	return nil
}

type queueBody struct {
	URLs       []string `json:"urls"`
	TargetDir  string   `json:"target_dir"`
	Format     string   `json:"format"`
	Quality    int      `json:"quality"`
	Resolution string   `json:"resolution"`
}

// StartBatch queues several links as one backend job. Links are trimmed and
// deduplicated preserving first occurrence; per-link provider handling is the
// backend's job.
func (c *Controller) StartBatch(ctx context.Context, urls []string, opts DownloadOptions) error {
	urls = dedupeLinks(urls)
	if len(urls) == 0 {
		c.metrics.IncCommands(true)
		return errors.Validation("Paste at least one link to queue.")
	}
	if !c.store.Begin(jobs.Download) {
		c.metrics.IncCommands(true)
		return errors.Validation("A download is already in progress.")
	}

	dir, err := c.SelectDir(ctx)
	if err != nil {
		c.store.Revert(jobs.Download)
		c.metrics.IncCommands(true)
		return err
	}
	if dir == "" {
		c.store.Revert(jobs.Download)
		return nil
	}

	body, err := json.Marshal(queueBody{
		URLs:       urls,
		TargetDir:  dir,
		Format:     opts.Format,
		Quality:    opts.QualityKbps,
		Resolution: opts.Resolution,
	})
	if err != nil {
		c.store.Revert(jobs.Download)
		return errors.Network("queue links", err)
	}
	if err := c.postStatus(ctx, "queue links", "/queue", "application/json", bytes.NewReader(body)); err != nil {
		c.settleFailure(jobs.Download, err)
		c.metrics.IncCommands(true)
		return err
	}
	c.store.MarkRunning(jobs.Download, fmt.Sprintf("Queued %d links", len(urls)))
	c.metrics.IncCommands(false)
	return nil
}

// Compress uploads an MP4 for re-encoding. The file is validated locally first
// so an obviously bad pick never reaches the backend.
func (c *Controller) Compress(ctx context.Context, path string, opts CompressOptions) error {
	info, err := os.Stat(path)
	if err != nil {
		c.metrics.IncCommands(true)
		return errors.Validation("File not found: " + path)
	}
	if info.IsDir() || info.Size() == 0 {
		c.metrics.IncCommands(true)
		return errors.Validation("Pick a non-empty video file.")
	}
	if !strings.EqualFold(filepath.Ext(path), ".mp4") {
		c.metrics.IncCommands(true)
		return errors.Validation("Only MP4 files can be compressed.")
	}
	if !c.store.Begin(jobs.Compression) {
		c.metrics.IncCommands(true)
		return errors.Validation("A compression is already in progress.")
	}

	dir, err := c.SelectDir(ctx)
	if err != nil {
		c.store.Revert(jobs.Compression)
		c.metrics.IncCommands(true)
		return err
	}
	if dir == "" {
		c.store.Revert(jobs.Compression)
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		c.store.Revert(jobs.Compression)
		return errors.Validation("Cannot read file: " + path)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err == nil {
		_, err = io.Copy(part, f)
	}
	if err == nil {
		err = writeCompressFields(mw, dir, opts)
	}
	if err == nil {
		err = mw.Close()
	}
	if err != nil {
		c.store.Revert(jobs.Compression)
		return errors.Network("build upload", err)
	}

	if err := c.postStatus(ctx, "compress file", "/compress", mw.FormDataContentType(), &buf); err != nil {
		c.settleFailure(jobs.Compression, err)
		c.metrics.IncCommands(true)
		return err
	}
	c.store.MarkRunning(jobs.Compression, "Uploading file...")
	c.metrics.IncCommands(false)
	return nil
}

func writeCompressFields(mw *multipart.Writer, dir string, opts CompressOptions) error {
	fields := [][2]string{
		{"compression", strconv.Itoa(estimate.ClampPercent(opts.Percent))},
		{"resolution", opts.Resolution},
		{"target_dir", dir},
		{"discord_mode", strconv.FormatBool(opts.DiscordMode)},
		{"hardware_mode", opts.HardwareMode},
	}
	if name := util.SanitizeName(opts.CustomName); name != "" {
		fields = append(fields, [2]string{"custom_name", name})
	}
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

// Cancel asks the backend to stop the active job. The store is untouched; the
// next frame decides the displayed phase.
func (c *Controller) Cancel(ctx context.Context) error {
	if err := c.postStatus(ctx, "cancel", "/cancel", "", nil); err != nil {
		c.metrics.IncCommands(true)
		return err
	}
	c.metrics.IncCommands(false)
	return nil
}

// Reveal opens the host file manager at the given path.
func (c *Controller) Reveal(ctx context.Context, path string) error {
	body, _ := json.Marshal(map[string]string{"path": path})
	return c.postStatus(ctx, "reveal path", "/reveal", "application/json", bytes.NewReader(body))
}

// SelectDir asks the backend to open its directory picker. An empty result
// means the user dismissed it; that is not an error.
func (c *Controller) SelectDir(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Backend.HTTPBase+"/select-dir", nil)
	if err != nil {
		return "", errors.Network("pick directory", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Network("pick directory", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.BackendRejection("pick directory", resp.StatusCode)
	}
	var out struct {
		Dir string `json:"dir"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil {
		return "", errors.Network("pick directory", err)
	}
	return strings.TrimSpace(out.Dir), nil
}

// InspectInstagram summarizes the media behind an Instagram link. The caller
// is responsible for discarding a stale response when the active link changed
// while the request was in flight.
func (c *Controller) InspectInstagram(ctx context.Context, link string) (InstagramSummary, error) {
	var out InstagramSummary
	u := c.cfg.Backend.HTTPBase + "/inspect-instagram?url=" + url.QueryEscape(link)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return out, errors.Network("inspect link", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return out, errors.Network("inspect link", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, errors.BackendRejection("inspect link", resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil {
		return out, errors.Network("inspect link", err)
	}
	return out, nil
}

// RecordCompletion appends a finished job's result to history and bumps the
// completion counter. Callers invoke it once per transition into done.
func (c *Controller) RecordCompletion(kind jobs.Kind, st jobs.JobState) {
	if kind == jobs.Download {
		c.metrics.IncDownloadsDone()
	} else {
		c.metrics.IncCompressionsDone()
	}
	if c.prefs == nil || st.Result == nil {
		return
	}
	e := prefs.HistoryEntry{
		Kind:     kind.String(),
		Path:     st.Result.Path,
		Filename: st.Result.Filename,
		Size:     st.Result.FinalSize,
		Encoder:  st.Result.Encoder,
	}
	if err := c.prefs.AddHistory(e); err != nil {
		c.log.Warnf("history append failed: %v", err)
	}
}

// settleFailure moves a just-begun job out of requesting after a rejected
// start. 499 is the backend reporting a user-side cancellation; that reverts
// quietly instead of showing an errored job.
func (c *Controller) settleFailure(kind jobs.Kind, err error) {
	if errors.IsNotice(err) {
		c.store.Revert(kind)
		return
	}
	c.store.Fail(kind, friendlyMessage(err))
}

func friendlyMessage(err error) string {
	if fe, ok := err.(*errors.UserFriendlyError); ok {
		return fe.Message
	}
	return err.Error()
}

func (c *Controller) postStatus(ctx context.Context, op, path, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Backend.HTTPBase+path, body)
	if err != nil {
		return errors.Network(op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Network(op, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.BackendRejection(op, resp.StatusCode)
	}
	return nil
}

func dedupeLinks(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
