package config

// defaultConfig builds the seed configuration values documented in spec §4.7/§4.8.
// Initialize merges this with whatever the user's YAML overrides.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: "8080",
			GinMode:  "release",
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         5432,
			SSLMode:      "disable",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Planner: PlannerConfig{
			MaxPlanningIterations: 3,
			DecompositionEnabled:  true,
		},
		Evaluation: EvaluationConfig{
			Plan: RubricConfig{
				MaxAttempts:    3,
				PassThreshold:  0.7,
				IterationEnabled: true,
				FailAction:     FailActionWarn,
				RoleTimeoutSeconds: 45,
				DimensionThresholds: map[string]float64{
					"completeness": 0.6,
					"feasibility":  0.6,
				},
			},
			Retrieval: RubricConfig{
				MaxAttempts:    2,
				PassThreshold:  0.7,
				IterationEnabled: true,
				FailAction:     FailActionContinue,
				SevereThreshold: 0.5,
				RoleTimeoutSeconds: 30,
				DimensionThresholds: map[string]float64{
					"relevance": 0.5,
					"coverage":  0.5,
				},
			},
			Answer: RubricConfig{
				MaxAttempts:    3,
				PassThreshold:  0.7,
				IterationEnabled: true,
				FailAction:     FailActionBlock,
				MajorFailureThreshold: 0.5,
				RoleTimeoutSeconds: 60,
				DimensionThresholds: map[string]float64{
					"accuracy":    0.6,
					"groundedness": 0.6,
					"clarity":     0.5,
				},
			},
		},
	}
}
