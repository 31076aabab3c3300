package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/math"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

const DEFAULT_CONFIG_PATH = "prism.toml"

type ApplicationConfig struct {
	Name     string `toml:"name"`
	Width    uint32 `toml:"width"`
	Height   uint32 `toml:"height"`
	LogLevel string `toml:"log_level"`
}

/**
 * @brief Renderer budgets. Descriptor counts and the upload size cover all
 * frames in flight and are split evenly between them.
 */
type RendererConfig struct {
	EnableValidation bool   `toml:"enable_validation"`
	VSync            bool   `toml:"vsync"`
	FramesInFlight   uint32 `toml:"frames_in_flight"`
	UploadBufferSize uint64 `toml:"upload_buffer_size"`
	SRVDescriptors   uint32 `toml:"srv_descriptors"`
	RTVDescriptors   uint32 `toml:"rtv_descriptors"`
	DSVDescriptors   uint32 `toml:"dsv_descriptors"`
	FrameArenaSize   uint64 `toml:"frame_arena_size"`
	PassArenaSize    uint64 `toml:"pass_arena_size"`
	ShadowMapSize    uint32 `toml:"shadow_map_size"`
}

// CameraConfig angles are in degrees, yaw and pitch in radians.
type CameraConfig struct {
	FovDegrees        float32    `toml:"fov_degrees"`
	Near              float32    `toml:"near"`
	Far               float32    `toml:"far"`
	Position          [3]float32 `toml:"position"`
	Yaw               float32    `toml:"yaw"`
	Pitch             float32    `toml:"pitch"`
	MoveSpeed         float32    `toml:"move_speed"`
	SprintMultiplier  float32    `toml:"sprint_multiplier"`
	MouseSensitivity  float32    `toml:"mouse_sensitivity"`
	MouseAcceleration float32    `toml:"mouse_acceleration"`

	PlayerFovDegrees float32    `toml:"player_fov_degrees"`
	PlayerNear       float32    `toml:"player_near"`
	PlayerFar        float32    `toml:"player_far"`
	PlayerPosition   [3]float32 `toml:"player_position"`
	PlayerSpeed      float32    `toml:"player_speed"`
}

type LightConfig struct {
	Enabled bool    `toml:"enabled"`
	Shadows bool    `toml:"shadows"`
	Yaw     float32 `toml:"yaw"`
	Pitch   float32 `toml:"pitch"`
	// AutoOrbitSpeed is in radians per second.
	AutoOrbitSpeed  float32 `toml:"auto_orbit_speed"`
	Distance        float32 `toml:"distance"`
	OrthoHalfExtent float32 `toml:"ortho_half_extent"`
	Near            float32 `toml:"near"`
	Far             float32 `toml:"far"`
}

type AssetsConfig struct {
	ShaderDirectory string `toml:"shader_directory"`
	HotReload       bool   `toml:"hot_reload"`
}

type Config struct {
	Application ApplicationConfig `toml:"application"`
	Renderer    RendererConfig    `toml:"renderer"`
	Camera      CameraConfig      `toml:"camera"`
	Light       LightConfig       `toml:"light"`
	Assets      AssetsConfig      `toml:"assets"`
}

func Default() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:     "Prism",
			Width:    1280,
			Height:   720,
			LogLevel: "info",
		},
		Renderer: RendererConfig{
			EnableValidation: false,
			VSync:            true,
			FramesInFlight:   3,
			UploadBufferSize: 32 * 1024 * 1024,
			SRVDescriptors:   4096,
			RTVDescriptors:   128,
			DSVDescriptors:   32,
			FrameArenaSize:   256 * 1024,
			PassArenaSize:    128 * 1024,
			ShadowMapSize:    2048,
		},
		Camera: CameraConfig{
			FovDegrees:        60,
			Near:              0.1,
			Far:               500,
			Position:          [3]float32{-5, 3, -5},
			Yaw:               0.7,
			Pitch:             -0.2,
			MoveSpeed:         5,
			SprintMultiplier:  2,
			MouseSensitivity:  0.0025,
			MouseAcceleration: 0.00015,
			PlayerFovDegrees:  60,
			PlayerNear:        0.1,
			PlayerFar:         5,
			PlayerPosition:    [3]float32{0, 0.5, 0},
			PlayerSpeed:       3,
		},
		Light: LightConfig{
			Enabled:         true,
			Shadows:         true,
			Yaw:             0.3,
			Pitch:           -0.7,
			AutoOrbitSpeed:  0.5,
			Distance:        30,
			OrthoHalfExtent: 5,
			Near:            1,
			Far:             200,
		},
		Assets: AssetsConfig{
			ShaderDirectory: "assets/shaders",
			HotReload:       true,
		},
	}
}

/**
 * @brief Reads the configuration at path on top of the defaults. A missing
 * file is not an error: the defaults are returned as they are.
 */
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		core.LogInfo("no configuration at %s, using defaults", path)
		cfg := Default()
		return cfg, cfg.Validate()
	}
	if err != nil {
		return nil, fmt.Errorf("reading configuration %s: %w", path, err)
	}
	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses TOML over the defaults. Unknown keys are rejected.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: %s", core.ErrInvalidConfig, strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, fmt.Errorf("%w: line %d column %d: %s", core.ErrInvalidConfig, row, col, decodeErr.Error())
		}
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects budgets the renderer cannot start with.
func (c *Config) Validate() error {
	r := &c.Renderer
	var errs []error
	if r.FramesInFlight < 2 || r.FramesInFlight > 4 {
		errs = append(errs, fmt.Errorf("frames_in_flight must be within [2, 4], got %d", r.FramesInFlight))
	}
	if r.UploadBufferSize == 0 || r.SRVDescriptors == 0 || r.RTVDescriptors == 0 || r.DSVDescriptors == 0 {
		errs = append(errs, fmt.Errorf("upload and descriptor budgets must be non zero"))
	}
	if r.FramesInFlight > 0 && r.UploadBufferSize/uint64(r.FramesInFlight) < 64*1024 {
		errs = append(errs, fmt.Errorf("upload_buffer_size %d leaves less than 64 KiB per frame", r.UploadBufferSize))
	}
	if r.FramesInFlight > 0 && (r.SRVDescriptors < r.FramesInFlight || r.RTVDescriptors < r.FramesInFlight || r.DSVDescriptors < r.FramesInFlight) {
		errs = append(errs, fmt.Errorf("every descriptor heap needs at least one descriptor per frame"))
	}
	if r.FrameArenaSize == 0 || r.PassArenaSize == 0 {
		errs = append(errs, fmt.Errorf("arena sizes must be non zero"))
	}
	if r.ShadowMapSize == 0 {
		errs = append(errs, fmt.Errorf("shadow_map_size must be non zero"))
	}
	if c.Application.Width == 0 || c.Application.Height == 0 {
		errs = append(errs, fmt.Errorf("window size must be non zero"))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near || c.Camera.PlayerNear <= 0 || c.Camera.PlayerFar <= c.Camera.PlayerNear {
		errs = append(errs, fmt.Errorf("camera clip ranges must satisfy 0 < near < far"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", core.ErrInvalidConfig, errors.Join(errs...))
}

// Backend flattens the settings the GPU backend needs.
func (c *Config) Backend() metadata.RendererBackendConfig {
	return metadata.RendererBackendConfig{
		ApplicationName:    c.Application.Name,
		EnableValidation:   c.Renderer.EnableValidation,
		VSync:              c.Renderer.VSync,
		FramesInFlight:     c.Renderer.FramesInFlight,
		UploadBufferSize:   c.Renderer.UploadBufferSize,
		SRVDescriptorCount: c.Renderer.SRVDescriptors,
		RTVDescriptorCount: c.Renderer.RTVDescriptors,
		DSVDescriptorCount: c.Renderer.DSVDescriptors,
		ShadowMapSize:      c.Renderer.ShadowMapSize,
		ShaderDirectory:    c.Assets.ShaderDirectory,
	}
}

func Vec3(v [3]float32) math.Vec3 {
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}
