package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ayusman/posturewatch/internal/app"
	"github.com/ayusman/posturewatch/internal/capture"
	"github.com/ayusman/posturewatch/internal/logging"
	"github.com/ayusman/posturewatch/internal/objdetect"
	"github.com/ayusman/posturewatch/internal/plugin"
	"github.com/ayusman/posturewatch/internal/pose"
	"github.com/ayusman/posturewatch/internal/server"
	"github.com/ayusman/posturewatch/internal/store"
	"github.com/ayusman/posturewatch/internal/tray"
)

const (
	flagAddr             = "addr"
	flagCamera           = "camera"
	flagFPS              = "fps"
	flagDB               = "db"
	flagModel            = "model"
	flagPoseScript       = "pose-script"
	flagPython           = "python"
	flagStatic           = "static"
	flagLogLevel         = "log-level"
	flagTray             = "tray"
	flagAutostart        = "autostart"
	flagInferenceTimeout = "inference-timeout"
	flagPluginDir        = "plugin-dir"
	flagAlertAfter       = "alert-after"
)

func main() {
	a := &cli.App{
		Name:  "posturewatch",
		Usage: "watch your sitting posture through the webcam",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagAddr,
				Value:   ":8080",
				Usage:   "HTTP listen address",
				EnvVars: []string{"POSTUREWATCH_ADDR"},
			},
			&cli.IntFlag{
				Name:    flagCamera,
				Value:   0,
				Usage:   "camera device `ID`",
				EnvVars: []string{"POSTUREWATCH_CAMERA"},
			},
			&cli.IntFlag{
				Name:    flagFPS,
				Value:   capture.DefaultFPS,
				Usage:   "requested camera frame rate",
				EnvVars: []string{"POSTUREWATCH_FPS"},
			},
			&cli.StringFlag{
				Name:    flagDB,
				Usage:   "settings database `FILE` (default ~/.posturewatch/posturewatch.db)",
				EnvVars: []string{"POSTUREWATCH_DB"},
			},
			&cli.StringFlag{
				Name:    flagModel,
				Value:   objdetect.DefaultONNXConfig().ModelPath,
				Usage:   "ONNX posture model `FILE` for the silhouette strategy",
				EnvVars: []string{"POSTUREWATCH_MODEL"},
			},
			&cli.StringFlag{
				Name:    flagPoseScript,
				Usage:   "path to pose_service.py",
				EnvVars: []string{"POSTUREWATCH_POSE_SCRIPT"},
			},
			&cli.StringFlag{
				Name:    flagPython,
				Usage:   "Python interpreter for the pose service",
				EnvVars: []string{"POSTUREWATCH_PYTHON"},
			},
			&cli.StringFlag{
				Name:    flagStatic,
				Usage:   "directory of static web files",
				EnvVars: []string{"POSTUREWATCH_STATIC"},
			},
			&cli.StringFlag{
				Name:    flagLogLevel,
				Value:   "info",
				Usage:   "log level (debug, info, warn, error)",
				EnvVars: []string{"POSTUREWATCH_LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:    flagTray,
				Usage:   "show a system tray menu",
				EnvVars: []string{"POSTUREWATCH_TRAY"},
			},
			&cli.BoolFlag{
				Name:    flagAutostart,
				Usage:   "open the camera at startup",
				EnvVars: []string{"POSTUREWATCH_AUTOSTART"},
			},
			&cli.DurationFlag{
				Name:    flagInferenceTimeout,
				Value:   server.DefaultInferenceTimeout,
				Usage:   "timeout for classifying one posted frame",
				EnvVars: []string{"POSTUREWATCH_INFERENCE_TIMEOUT"},
			},
			&cli.StringFlag{
				Name:    flagPluginDir,
				Usage:   "alert plugin `DIR` (default ~/.posturewatch/plugins)",
				EnvVars: []string{"POSTUREWATCH_PLUGIN_DIR"},
			},
			&cli.DurationFlag{
				Name:    flagAlertAfter,
				Value:   plugin.DefaultAlertAfter,
				Usage:   "how long posture must stay bad before alert plugins run",
				EnvVars: []string{"POSTUREWATCH_ALERT_AFTER"},
			},
		},
		Action: run,
	}

	if err := a.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger, err := logging.New("posturewatch", c.String(flagLogLevel))
	if err != nil {
		return err
	}
	defer logger.Sync()

	dbPath := c.String(flagDB)
	if dbPath == "" {
		if dbPath, err = defaultDBPath(); err != nil {
			return err
		}
	}
	st, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	logger.Infow("settings store opened", "path", dbPath)

	poseCfg := pose.DefaultConfig()
	poseCfg.ScriptPath = c.String(flagPoseScript)
	poseCfg.PythonPath = c.String(flagPython)
	poseDetector, err := pose.NewMediaPipeDetector(poseCfg, logger.Named("pose"))
	if err != nil {
		return multierr.Append(fmt.Errorf("pose detector: %w", err), st.Close())
	}

	objects, err := loadModel(c.String(flagModel), logger)
	if err != nil {
		return multierr.Combine(err, poseDetector.Close(), st.Close())
	}

	camCfg := capture.DefaultConfig()
	camCfg.DeviceID = c.Int(flagCamera)
	camCfg.FPS = c.Int(flagFPS)

	appCfg := app.Config{
		Store:   st,
		Camera:  capture.NewCamera(camCfg, logger.Named("camera")),
		Pose:    poseDetector,
		Objects: objects,
		Pacing:  app.DefaultPacing(),
		Logger:  logger.Named("app"),
	}
	application, err := app.New(appCfg)
	if err != nil {
		err = multierr.Combine(err, poseDetector.Close(), st.Close())
		if objects != nil {
			err = multierr.Append(err, objects.Close())
		}
		return err
	}

	staticDir := c.String(flagStatic)
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		logger.Infow("serving static files", "dir", staticDir)
	}

	srv := server.New(server.Config{
		StaticDir:        staticDir,
		App:              application,
		Store:            st,
		InferenceTimeout: c.Duration(flagInferenceTimeout),
		Logger:           logger.Named("http"),
	})

	if c.Bool(flagAutostart) {
		if err := application.StartCamera(); err != nil {
			logger.Warnw("camera not started", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	unsubscribe := startAlerts(ctx, c, application, logger)
	defer unsubscribe()

	go func() {
		if err := srv.ListenAndServe(c.String(flagAddr)); err != nil {
			logger.Errorw("server failed", "error", err)
			stop()
		}
	}()

	if c.Bool(flagTray) {
		runTray(ctx, stop, application, dashboardURL(c.String(flagAddr)), logger)
	} else {
		<-ctx.Done()
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return multierr.Combine(
		application.StopCamera(),
		srv.Shutdown(shutdownCtx),
		application.Close(),
		st.Close(),
	)
}

// runTray blocks on the tray event loop until the user quits or ctx ends.
func runTray(ctx context.Context, stop context.CancelFunc, a *app.App, url string, logger *zap.SugaredLogger) {
	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnDashboard(func() {
		if err := openBrowser(url); err != nil {
			logger.Warnw("failed to open browser", "url", url, "error", err)
		}
	})
	t.OnQuit(stop)

	unsubscribe := a.Subscribe(func(s app.Snapshot) { t.SetPosture(s.Posture) })
	defer unsubscribe()

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

// startAlerts runs the alert plugins on the snapshot stream. The returned
// func detaches them.
func startAlerts(ctx context.Context, c *cli.Context, a *app.App, logger *zap.SugaredLogger) func() {
	dir := c.String(flagPluginDir)
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".posturewatch", "plugins")
		}
	}

	manager := plugin.NewManager(dir, logger.Named("plugin"))
	if err := manager.Discover(); err != nil {
		logger.Warnw("plugin discovery failed", "dir", dir, "error", err)
	}
	if len(manager.List()) == 0 {
		return func() {}
	}

	alerter := plugin.NewAlerter(manager, plugin.NewExecutor(plugin.DefaultTimeout), c.Duration(flagAlertAfter), logger.Named("alerts"))
	go alerter.Run(ctx)

	return a.Subscribe(func(s app.Snapshot) {
		alerter.Observe(plugin.Sample{
			Posture:    s.Posture,
			NeckAngle:  s.NeckAngle,
			TorsoAngle: s.TorsoAngle,
			SessionID:  s.SessionID,
			At:         s.UpdatedAt,
		})
	})
}

// loadModel opens the silhouette model. A missing model file only disables
// the silhouette strategy.
func loadModel(path string, logger *zap.SugaredLogger) (objdetect.Detector, error) {
	if path == "" {
		return nil, nil
	}
	cfg := objdetect.DefaultONNXConfig()
	cfg.ModelPath = path

	d, err := objdetect.NewONNXDetector(cfg, logger.Named("objdetect"))
	if errors.Is(err, objdetect.ErrModelNotFound) {
		logger.Infow("no posture model, silhouette strategy disabled", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load posture model: %w", err)
	}
	return d, nil
}

func defaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	dir := filepath.Join(homeDir, ".posturewatch")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return filepath.Join(dir, "posturewatch.db"), nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.posturewatch/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	homeWebDir := filepath.Join(homeDir, ".posturewatch", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}

func dashboardURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
