package storage

import (
	"time"

	"github.com/google/uuid"
)

// Entry sources.
const (
	SourceQuickEntry = "quick_entry"
	SourceManual     = "manual"
	SourceImport     = "import"
)

// Profile is the per-user record the consultation engine writes back to
// and the recommendation engine plans against.
type Profile struct {
	UserID            string
	CurrentWeightKg   *float64
	HeightCm          *float64
	Age               *int
	BiologicalSex     *string
	PrimaryGoal       *string
	GoalWeightKg      *float64
	EquipmentAccess   *string
	DietaryPreferences *string
	TrainingFrequency *int

	// Derived nutrition targets (set by the nutrition calculator).
	BMR                 *int
	EstimatedTDEE       *int
	DailyCalorieTarget  *int
	DailyProteinTargetG *int
	DailyCarbsTargetG   *int
	DailyFatTargetG     *int

	ConsultationOnboardingCompleted bool
	CreatedAt                       time.Time
	UpdatedAt                       time.Time
}

// FoodItem is one component of a meal, stored as JSONB.
type FoodItem struct {
	Name     string   `json:"name"`
	Quantity string   `json:"quantity,omitempty"`
	Calories *float64 `json:"calories,omitempty"`
	ProteinG *float64 `json:"protein_g,omitempty"`
	CarbsG   *float64 `json:"carbs_g,omitempty"`
	FatG     *float64 `json:"fat_g,omitempty"`
}

type Meal struct {
	ID             uuid.UUID
	UserID         string
	Name           string
	Category       string // breakfast | lunch | dinner | snack
	TotalCalories  *float64
	TotalProteinG  *float64
	TotalCarbsG    *float64
	TotalFatG      *float64
	TotalFiberG    *float64
	TotalSugarG    *float64
	TotalSodiumMg  *float64
	Foods          []FoodItem
	ImageURL       *string
	Source         string
	Estimated      bool
	ConfidenceScore float64

	// Enrichment
	MealQualityScore  *float64
	MacroBalanceScore *float64
	AdherenceToGoals  *float64
	Tags              []string

	Notes     string
	LoggedAt  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Activity struct {
	ID                 uuid.UUID
	UserID             string
	Name               string
	ActivityType       string
	SportType          string
	ElapsedTimeSeconds int
	MovingTimeSeconds  *int
	DistanceMeters     *int
	Calories           *float64
	PerceivedExertion  *int
	Mood               *string
	EnergyLevel        *int
	Source             string
	ConfidenceScore    float64

	// Enrichment
	PerformanceScore    *float64
	RecoveryNeededHours *int
	Tags                []string

	Notes     string
	StartDate time.Time
	CreatedAt time.Time
}

// Exercise is one movement in a strength workout, stored as JSONB.
type Exercise struct {
	Name        string  `json:"name"`
	Sets        int     `json:"sets"`
	Reps        int     `json:"reps"`
	WeightLbs   float64 `json:"weight_lbs"`
	RestSeconds int     `json:"rest_seconds,omitempty"`
}

type Workout struct {
	ID                uuid.UUID
	UserID            string
	Notes             string
	DurationMinutes   *int
	Exercises         []Exercise
	VolumeLoad        *float64
	EstimatedCalories *int
	MuscleGroups      []string
	RPE               *int
	Mood              *string
	EnergyLevel       *int
	Source            string
	ConfidenceScore   float64

	// Enrichment
	ProgressiveOverloadStatus *string // improving | maintaining | declining
	RecoveryNeededHours       *int
	Tags                      []string

	StartedAt   time.Time
	CompletedAt time.Time
	CreatedAt   time.Time
}

type Note struct {
	ID       uuid.UUID
	UserID   string
	Title    string
	Content  string
	Category string

	// Enrichment
	Sentiment      *string
	SentimentScore *float64
	DetectedThemes []string
	RelatedGoals   []string
	ActionItems    []string
	Tags           []string

	Source          string
	ConfidenceScore float64
	CreatedAt       time.Time
}

type Measurement struct {
	ID              uuid.UUID
	UserID          string
	WeightKg        *float64
	BodyFatPct      *float64
	Measurements    map[string]float64
	Notes           string
	Source          string
	ConfidenceScore float64
	MeasuredAt      time.Time
	CreatedAt       time.Time
}

// Embedding data types.
const (
	DataTypeText  = "text"
	DataTypeImage = "image"
	DataTypeAudio = "audio"
)

// Embedding is one row of the unified multimodal vector store.
type Embedding struct {
	ID              uuid.UUID
	UserID          string
	DataType        string
	SourceType      string
	SourceID        *uuid.UUID
	Vector          []float32
	ContentText     *string
	StorageURL      *string
	StorageBucket   *string
	FileName        *string
	FileSizeBytes   *int64
	MimeType        *string
	Metadata        map[string]any
	ConfidenceScore float64
	EmbeddingModel  string
	CreatedAt       time.Time
}

// EmbeddingMatch is a search hit with its raw cosine similarity.
type EmbeddingMatch struct {
	Embedding
	Similarity float64
}

// EmbeddingSearch narrows a vector search. EmbeddingModel is mandatory:
// vectors from different model families are never compared.
type EmbeddingSearch struct {
	UserID         string
	Vector         []float32
	EmbeddingModel string
	DataTypes      []string
	SourceTypes    []string
	Limit          int
	Threshold      float64
}

// EmbeddingJob is one pending row of the server-side embedding queue,
// drained by the background worker.
type EmbeddingJob struct {
	ID         uuid.UUID
	UserID     string
	SourceType string
	SourceID   *uuid.UUID
	Content    string
	Status     string // pending | done | failed
	Error      *string
	CreatedAt  time.Time
}

// Consultation session statuses.
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionAbandoned = "abandoned"
)

type ConsultationSession struct {
	ID                 uuid.UUID
	UserID             string
	SpecialistType     string
	Status             string
	ConversationStage  string
	Stages             []string
	StageIndex         int
	ProgressPercentage int
	TotalMessages      int
	SessionMetadata    map[string]any
	CreatedAt          time.Time
	CompletedAt        *time.Time
}

type ConsultationMessage struct {
	ID         uuid.UUID
	SessionID  uuid.UUID
	UserID     string
	Role       string // user | assistant
	Content    string
	TokensUsed int
	CostUSD    float64
	CreatedAt  time.Time
}

type ConsultationExtraction struct {
	ID              uuid.UUID
	SessionID       uuid.UUID
	UserID          string
	Category        string
	Data            map[string]any
	ConfidenceScore float64
	SourceMessage   *string
	CreatedAt       time.Time
}

// Event statuses.
const (
	EventUpcoming  = "upcoming"
	EventTraining  = "training"
	EventTapering  = "tapering"
	EventCompleted = "completed"
	EventAbandoned = "abandoned"
)

type Event struct {
	ID                uuid.UUID
	UserID            string
	Name              string
	Type              string
	Date              time.Time // date only, midnight UTC
	TrainingStartDate *time.Time
	PeakWeekDate      *time.Time
	TaperStartDate    *time.Time
	IsPrimaryGoal     bool
	Status            string
	LinkedProgramID   *uuid.UUID
	GoalPerformance   *string
	Location          *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Program struct {
	ID                uuid.UUID
	UserID            string
	Name              string
	TotalDays         int
	StartDate         time.Time
	EndDate           time.Time
	DurationWeeks     int
	Status            string // active | completed | abandoned
	GenerationContext map[string]any
	LinkedEventID     *uuid.UUID
	CreatedAt         time.Time
}

type ProgramDay struct {
	ID        uuid.UUID
	ProgramID uuid.UUID
	UserID    string
	DayNumber int
	DayDate   time.Time
	Focus     string
}

type PlannedMeal struct {
	ID          uuid.UUID
	DayID       uuid.UUID
	UserID      string
	MealType    string
	Name        string
	Foods       []string
	Calories    int
	ProteinG    int
	IsCompleted bool
}

type PlannedWorkout struct {
	ID              uuid.UUID
	DayID           uuid.UUID
	UserID          string
	Name            string
	WorkoutType     string
	DurationMinutes int
	Exercises       []Exercise
	Note            string
	IsCompleted     bool
}

// Recommendation statuses. Terminal statuses are immutable.
const (
	RecPending   = "pending"
	RecAccepted  = "accepted"
	RecRejected  = "rejected"
	RecCompleted = "completed"
	RecExpired   = "expired"
)

// Recommendation types.
const (
	RecTypeMeal          = "meal"
	RecTypeWorkout       = "workout"
	RecTypeRest          = "rest"
	RecTypeEventReminder = "event_reminder"
	RecTypeHydration     = "hydration"
	RecTypeSupplement    = "supplement"
	RecTypeNote          = "note"
	RecTypeCheckIn       = "check_in"
)

type Recommendation struct {
	ID                 uuid.UUID
	UserID             string
	RecommendationDate time.Time // date only
	// Minutes from midnight, nil when the recommendation is not
	// anchored to a time of day (e.g. rest days).
	RecommendationTimeMinutes *int
	Type           string
	Content        map[string]any
	Reasoning      string
	Priority       int // 1..5
	Status         string
	BasedOnData    map[string]any
	ExpiresAt      time.Time
	Feedback       *string
	FeedbackRating *int
	CompletedAt    *time.Time
	CreatedAt      time.Time
}

// IsTerminalRecStatus reports whether further status updates are rejected.
func IsTerminalRecStatus(status string) bool {
	return status == RecCompleted || status == RecRejected || status == RecExpired
}

type CoachConversation struct {
	ID            uuid.UUID
	UserID        string
	Title         *string
	MessageCount  int
	LastMessageAt *time.Time
	Summary       *string
	CreatedAt     time.Time
}

type CoachMessage struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	UserID         string
	Role           string
	Content        string
	IsVectorized   bool
	CreatedAt      time.Time
}

type Summary struct {
	ID          uuid.UUID
	UserID      string
	PeriodType  string // weekly | monthly | quarterly
	PeriodStart time.Time
	PeriodEnd   time.Time
	Data        map[string]any
	ReportURL   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
