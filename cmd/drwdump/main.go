// Command drwdump records one frame of a scene file and prints what a GPU
// backend would be asked to do with it.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"drawmgr/internal/backend/trace"
	"drawmgr/internal/config"
	"drawmgr/internal/draw"
	"drawmgr/internal/profiling"
	"drawmgr/internal/scene"
	"drawmgr/pkg/scenefile"
)

func main() {
	scenePath := flag.String("scene", "scenes/demo.json", "scene file to record")
	sortMode := flag.String("sort", "z", "transparent pass order: z, reverse or none")
	selectMode := flag.Bool("select", false, "record select ids and disable draw merging")
	verbose := flag.Bool("v", false, "include uniform updates in the trace")
	noCull := flag.Bool("nocull", false, "disable frustum culling")
	noBatch := flag.Bool("nobatch", false, "disable batch sorting of command chunks")
	debug := flag.Bool("debug", false, "log draw layer diagnostics to stderr")
	flag.Parse()

	if err := run(*scenePath, *sortMode, *selectMode, *verbose, *noCull, *noBatch, *debug); err != nil {
		fmt.Fprintln(os.Stderr, "drwdump:", err)
		os.Exit(1)
	}
}

func run(scenePath, sortMode string, selectMode, verbose, noCull, noBatch, debug bool) error {
	if debug {
		draw.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	mode, err := scene.ParseSortMode(sortMode)
	if err != nil {
		return err
	}
	s, err := scenefile.Load(scenePath)
	if err != nil {
		return err
	}

	config.SetCulling(!noCull)
	config.SetBatchSorting(!noBatch)
	m := draw.NewManager(draw.DefaultOptions())
	b := trace.New()
	b.Verbose = verbose

	profiling.ResetFrame()
	if err := m.BeginFrame(); err != nil {
		return err
	}
	f, err := scene.NewRecorder(s, scene.NewHeadlessAssets()).Record(m, scene.Options{
		Sort:   mode,
		Select: selectMode,
		Aspect: 16.0 / 9.0,
	})
	if err != nil {
		return err
	}
	if err := m.EndFrame(b); err != nil {
		return err
	}
	if err := m.DrawPass(b, f.First); err != nil {
		return err
	}

	if _, err := b.WriteTo(os.Stdout); err != nil {
		return err
	}
	st := b.Stats()
	fmt.Printf("\npasses=%d groups=%d draws=%d instances=%d shader_binds=%d uniforms=%d chunk_binds=%d uploaded=%d\n",
		st.Passes, st.Groups, st.Draws, st.Instances, st.ShaderBinds, st.Uniforms, st.ChunkBinds, st.Uploaded)
	fmt.Println(profiling.Report(5))
	return nil
}
