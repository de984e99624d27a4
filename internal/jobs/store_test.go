package jobs

import "testing"

func frame(t *testing.T, body string) Frame {
	t.Helper()
	f, err := ParseFrame([]byte(body))
	if err != nil {
		t.Fatalf("ParseFrame(%s): %v", body, err)
	}
	return f
}

func TestClampProgressProperty(t *testing.T) {
	for p := -50; p <= 150; p++ {
		got := ClampProgress(float64(p))
		if got < 0 || got > 100 {
			t.Fatalf("clamp(%d)=%v out of range", p, got)
		}
		switch {
		case p < 0:
			if got != 0 {
				t.Fatalf("clamp(%d)=%v want 0", p, got)
			}
		case p > 100:
			if got != 100 {
				t.Fatalf("clamp(%d)=%v want 100", p, got)
			}
		default:
			if got != float64(p) {
				t.Fatalf("clamp(%d)=%v want identity", p, got)
			}
		}
	}
}

func TestProgressFrameClampsAndRuns(t *testing.T) {
	s := NewStore()
	s.ApplyDownloadFrame(frame(t, `{"progress": 250, "status": "Baixando."}`))
	st := s.Snapshot(Download)
	if st.Progress != 100 {
		t.Fatalf("progress=%v want 100", st.Progress)
	}
	if st.Phase != Running {
		t.Fatalf("phase=%s want running", st.Phase)
	}
	if st.Status != "Baixando." {
		t.Fatalf("status=%q", st.Status)
	}
}

func TestCancelledStatusWinsOverProgress(t *testing.T) {
	s := NewStore()
	s.ApplyDownloadFrame(frame(t, `{"progress": 55}`))
	s.ApplyDownloadFrame(frame(t, `{"status": "Download cancelado", "progress": 80}`))
	st := s.Snapshot(Download)
	if st.Phase != Cancelled {
		t.Fatalf("phase=%s want cancelled", st.Phase)
	}
	if st.Progress != 0 {
		t.Fatalf("progress=%v want 0", st.Progress)
	}
	if st.Result != nil {
		t.Fatalf("pending result must be cleared")
	}
}

func TestSavedPathEntersFinishingThenCompletes(t *testing.T) {
	s := NewStore()
	finishing := s.ApplyDownloadFrame(frame(t, `{"status": "Concluindo", "progress": 100, "saved_path": "/tmp/video.mp4"}`))
	if !finishing {
		t.Fatalf("terminal path frame must signal finishing")
	}
	st := s.Snapshot(Download)
	if st.Phase != Finishing {
		t.Fatalf("phase=%s want finishing", st.Phase)
	}
	if st.Result == nil || st.Result.Path != "/tmp/video.mp4" || st.Result.Filename != "video.mp4" {
		t.Fatalf("result=%+v", st.Result)
	}

	s.Complete(Download)
	st = s.Snapshot(Download)
	if st.Phase != Done || st.Progress != 100 {
		t.Fatalf("after settle: phase=%s progress=%v", st.Phase, st.Progress)
	}
}

func TestCompleteIsNoopOutsideFinishing(t *testing.T) {
	s := NewStore()
	s.ApplyDownloadFrame(frame(t, `{"saved_path": "/tmp/v.mp4"}`))
	s.ApplyDownloadFrame(frame(t, `{"status": "Download cancelado"}`))
	// The settle timer may still fire after the cancelled frame; the
	// channel's verdict stands.
	s.Complete(Download)
	if st := s.Snapshot(Download); st.Phase != Cancelled {
		t.Fatalf("phase=%s want cancelled", st.Phase)
	}
}

func TestQueueFinishedForcesFullProgress(t *testing.T) {
	s := NewStore()
	s.ApplyDownloadFrame(frame(t, `{"progress": 40}`))
	finishing := s.ApplyDownloadFrame(frame(t, `{"status": "Fila concluída", "queue_finished": true, "target_dir": "/downloads"}`))
	if !finishing {
		t.Fatalf("queue completion must signal finishing")
	}
	st := s.Snapshot(Download)
	if st.Progress != 100 {
		t.Fatalf("progress=%v want 100", st.Progress)
	}
	if st.Result == nil || st.Result.Path != "/downloads" {
		t.Fatalf("result=%+v", st.Result)
	}
}

func TestCompressionResultMergesAcrossFrames(t *testing.T) {
	s := NewStore()
	s.ApplyCompressionFrame(frame(t, `{"task":"compressor","status":"Comprimindo...","progress":50}`))
	s.ApplyCompressionFrame(frame(t, `{"task":"compressor","saved_path":"/out/c.mp4","final_size":5000}`))
	s.ApplyCompressionFrame(frame(t, `{"task":"compressor","status":"Compressão concluída!","progress":100,"encoder":"libx264","target_size_bytes":9437184}`))
	st := s.Snapshot(Compression)
	if st.Phase != Done {
		t.Fatalf("phase=%s want done", st.Phase)
	}
	r := st.Result
	if r == nil {
		t.Fatalf("result missing")
	}
	if r.Path != "/out/c.mp4" || r.FinalSize != 5000 || r.Encoder != "libx264" || r.TargetSizeBytes != 9437184 {
		t.Fatalf("merged result wrong: %+v", r)
	}
}

func TestCompressionCancelResetsProgress(t *testing.T) {
	s := NewStore()
	s.ApplyCompressionFrame(frame(t, `{"task":"compressor","progress":70}`))
	s.ApplyCompressionFrame(frame(t, `{"task":"compressor","status":"Compressão cancelada pelo usuário.","progress":70}`))
	st := s.Snapshot(Compression)
	if st.Phase != Cancelled || st.Progress != 0 {
		t.Fatalf("phase=%s progress=%v", st.Phase, st.Progress)
	}
}

func TestCompressionErrorStatus(t *testing.T) {
	s := NewStore()
	s.ApplyCompressionFrame(frame(t, `{"task":"compressor","status":"Erro na compressão: boom","progress":0}`))
	if st := s.Snapshot(Compression); st.Phase != Errored {
		t.Fatalf("phase=%s want errored", st.Phase)
	}
}

func TestSlicesAreIndependent(t *testing.T) {
	s := NewStore()
	s.ApplyDownloadFrame(frame(t, `{"saved_path": "/tmp/v.mp4"}`))
	// Download sits in finishing; a compression frame must not be affected.
	s.ApplyCompressionFrame(frame(t, `{"task":"compressor","progress":10}`))
	if st := s.Snapshot(Compression); st.Phase != Running || st.Progress != 10 {
		t.Fatalf("compression slice blocked: %+v", st)
	}
	if st := s.Snapshot(Download); st.Phase != Finishing {
		t.Fatalf("download slice disturbed: %+v", st)
	}
}

func TestBeginRejectsActiveJob(t *testing.T) {
	s := NewStore()
	if !s.Begin(Download) {
		t.Fatalf("first begin must succeed")
	}
	if s.Begin(Download) {
		t.Fatalf("begin while requesting must be rejected")
	}
	s.MarkRunning(Download, "Baixando.")
	if s.Begin(Download) {
		t.Fatalf("begin while running must be rejected")
	}
	// The other kind is unaffected.
	if !s.Begin(Compression) {
		t.Fatalf("compression begin must succeed")
	}
}

func TestRevertReturnsToIdle(t *testing.T) {
	s := NewStore()
	s.Begin(Download)
	s.Revert(Download)
	if st := s.Snapshot(Download); st.Phase != Idle {
		t.Fatalf("phase=%s want idle", st.Phase)
	}
	if !s.Begin(Download) {
		t.Fatalf("begin must succeed after revert")
	}
}

func TestClearResetsTerminalJob(t *testing.T) {
	s := NewStore()
	s.ApplyDownloadFrame(frame(t, `{"saved_path": "/tmp/v.mp4"}`))
	s.Complete(Download)
	s.Clear(Download)
	st := s.Snapshot(Download)
	if st.Phase != Idle || st.Progress != 0 || st.Result != nil || st.Status != "" {
		t.Fatalf("clear incomplete: %+v", st)
	}
}

func TestSnapshotDeepCopiesResult(t *testing.T) {
	s := NewStore()
	s.ApplyCompressionFrame(frame(t, `{"task":"compressor","saved_path":"/o.mp4"}`))
	snap := s.Snapshot(Compression)
	snap.Result.Path = "/mutated"
	if s.Snapshot(Compression).Result.Path != "/o.mp4" {
		t.Fatalf("snapshot aliases store internals")
	}
}

func TestOnChangeFires(t *testing.T) {
	s := NewStore()
	var kinds []Kind
	s.OnChange(func(k Kind) { kinds = append(kinds, k) })
	s.ApplyDownloadFrame(frame(t, `{"progress": 10}`))
	s.ApplyCompressionFrame(frame(t, `{"task":"compressor","progress":10}`))
	if len(kinds) != 2 || kinds[0] != Download || kinds[1] != Compression {
		t.Fatalf("notifications wrong: %v", kinds)
	}
}
