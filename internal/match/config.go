package match

import (
	"errors"
	"fmt"
	"os"

	"github.com/tomz197/bocce/internal/config"
	"github.com/tomz197/bocce/internal/object"
	"github.com/tomz197/bocce/internal/opponent"
	"github.com/tomz197/bocce/internal/physics"
	"github.com/tomz197/bocce/internal/settle"
	"github.com/tomz197/bocce/internal/throw"
)

// Environment variables read by FromEnv.
const (
	EnvWinScore     = "BOCCE_WIN_SCORE"
	EnvBallsPerTeam = "BOCCE_BALLS_PER_TEAM"
	EnvDifficulty   = "BOCCE_DIFFICULTY"
	EnvTeamA        = "BOCCE_TEAM_A"
	EnvTeamB        = "BOCCE_TEAM_B"
	EnvAimMode      = "BOCCE_AIM_MODE"
	EnvThinkSeconds = "BOCCE_AI_THINK_SECONDS"
	EnvScoringDelay = "BOCCE_SCORING_DELAY_SECONDS"
	EnvRoundDelay   = "BOCCE_ROUND_DELAY_SECONDS"
)

// Config is everything a match needs to run.
type Config struct {
	WinScore     int
	BallsPerTeam int

	Controllers [2]object.Controller
	Difficulty  object.Difficulty

	ScoringDelay float64 // seconds the round result is shown
	RoundDelay   float64 // seconds between rounds

	// Tie-breaks: which team scores on equal closest distances, and which
	// team throws next when both are equally far.
	ScoreTieBreak object.Team
	TurnTieBreak  object.Team

	Court    physics.Court
	Settle   settle.Config
	Throw    throw.Config
	Opponent opponent.Config
}

// DefaultConfig returns a human (Team A) versus computer (Team B) match to
// 12 points with four balls each.
func DefaultConfig() Config {
	court := physics.DefaultCourt()
	th := throw.DefaultConfig()
	th.HalfWidth = court.HalfWidth()
	op := opponent.DefaultConfig()
	op.MaxAngle = th.MaxAngle
	return Config{
		WinScore:      12,
		BallsPerTeam:  4,
		Controllers:   [2]object.Controller{object.Human, object.Computer},
		Difficulty:    object.Medium,
		ScoringDelay:  3,
		RoundDelay:    2,
		ScoreTieBreak: object.TeamA,
		TurnTieBreak:  object.TeamB,
		Court:         court,
		Settle:        settle.DefaultConfig(),
		Throw:         th,
		Opponent:      op,
	}
}

// Validate rejects configurations a match cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.WinScore < 1 {
		errs = append(errs, fmt.Errorf("win score %d must be at least 1", c.WinScore))
	}
	if c.BallsPerTeam < 1 {
		errs = append(errs, fmt.Errorf("balls per team %d must be at least 1", c.BallsPerTeam))
	}
	if c.ScoringDelay < 0 || c.RoundDelay < 0 {
		errs = append(errs, errors.New("delays must be non-negative"))
	}
	if !c.ScoreTieBreak.Valid() || !c.TurnTieBreak.Valid() {
		errs = append(errs, errors.New("tie-breaks must name a team"))
	}
	if c.Court.Length <= 0 || c.Court.Width <= 0 {
		errs = append(errs, errors.New("court dimensions must be positive"))
	}
	errs = append(errs, c.Settle.Validate(), c.Throw.Validate(), c.Opponent.Validate())
	return errors.Join(errs...)
}

// FromEnv returns DefaultConfig with any BOCCE_* overrides applied. Every
// malformed variable is reported; valid ones still apply.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	var errs []error

	if n, err := config.GetEnvInt(EnvWinScore, cfg.WinScore); err != nil {
		errs = append(errs, err)
	} else {
		cfg.WinScore = n
	}
	if n, err := config.GetEnvInt(EnvBallsPerTeam, cfg.BallsPerTeam); err != nil {
		errs = append(errs, err)
	} else {
		cfg.BallsPerTeam = n
	}
	if v, ok := os.LookupEnv(EnvDifficulty); ok && v != "" {
		d, err := object.ParseDifficulty(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvDifficulty, err))
		}
		cfg.Difficulty = d
	}
	for team, key := range [2]string{EnvTeamA, EnvTeamB} {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			c, err := object.ParseController(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				continue
			}
			cfg.Controllers[team] = c
		}
	}
	if v, ok := os.LookupEnv(EnvAimMode); ok && v != "" {
		mode, err := throw.ParseAimMode(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvAimMode, err))
		}
		cfg.Throw.AimMode = mode
	}
	if f, err := config.GetEnvFloat(EnvThinkSeconds, cfg.Opponent.ThinkDelay); err != nil {
		errs = append(errs, err)
	} else {
		cfg.Opponent.ThinkDelay = f
	}
	if f, err := config.GetEnvFloat(EnvScoringDelay, cfg.ScoringDelay); err != nil {
		errs = append(errs, err)
	} else {
		cfg.ScoringDelay = f
	}
	if f, err := config.GetEnvFloat(EnvRoundDelay, cfg.RoundDelay); err != nil {
		errs = append(errs, err)
	} else {
		cfg.RoundDelay = f
	}

	if err := errors.Join(errs...); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}
