package whisperx

// Config captures runtime settings for WhisperX operations.
type Config struct {
	// Command launches WhisperX, normally uvx.
	Command string
	// Model is the Whisper model to load (e.g., "base", "large-v3").
	Model string
	// Language is the sung language; names and ISO codes are accepted.
	Language string
	// CUDAEnabled enables GPU acceleration.
	CUDAEnabled bool
	// DiarizeEnabled turns on speaker attribution.
	DiarizeEnabled bool
	// HFToken is the Hugging Face token for the pyannote diarization model.
	HFToken string
}

// WhisperX configuration constants.
const (
	DefaultModel    = "base"
	DefaultLanguage = "hi"
	CUDAIndexURL    = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL    = "https://pypi.org/simple"
	BatchSize       = "4"
	OutputFormat    = "json"
	CPUDevice       = "cpu"
	CUDADevice      = "cuda"
	CPUComputeType  = "float32"
)

// UVXCommand is the default launcher.
const UVXCommand = "uvx"

// torchLegacyLoad restores torch.load's pre-2.6 default so WhisperX and
// pyannote checkpoints load.
const torchLegacyLoad = "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1"
