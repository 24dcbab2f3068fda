package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"

	defaultPath = "user_data.json"
)

// DefaultJobDescription is present in every snapshot until an administrator replaces it.
const DefaultJobDescription = `Our program offers interns a unique dual experience. Interns will be placed in a specific department, but will also have the opportunity to work on cross-functional projects. This will allow interns to gain a broad understanding of our business and the industry as a whole. Interns will be assigned a mentor who will provide guidance and support throughout the program. At the end of the internship, interns will have the opportunity to present their work to senior leaders. We are looking for candidates who are passionate, eager to learn, and ready to make an impact. ` + "\n" + `Programming Languages: Mid level Proficiency in programming languages is fundamental. Common languages include Java, Python, C++, and JavaScript. These languages are used for various applications, from web development to software engineering.
Data Structures and Algorithms: Understanding data structures (like arrays, linked lists, stacks, and queues) and algorithms (such as sorting and searching) is crucial for problem-solving and efficient coding.
Software Development: Knowledge of the software development lifecycle, including methodologies like Agile and tools such as Git for version control, is essential for creating robust software solutions.
Networking and Security: Basic knowledge of network protocols and cybersecurity principles is beneficial for understanding data communication and protecting systems from threats.
Problem-Solving and Critical Thinking: The ability to approach complex problems logically and creatively is vital in CS to develop innovative solutions.
Communication: Effective communication skills are necessary to explain technical concepts to non-technical stakeholders and collaborate with team members.
Teamwork: Computer scientists often work in teams; hence, the ability to collaborate effectively is crucial for project success.
Attention to Detail: Precision is key in coding and debugging; small errors can lead to significant issues.
Time Management: Managing time effectively to meet tight deadlines and juggle multiple projects is important in the fast-paced tech industry.
Adaptability: The tech field evolves rapidly; thus, being open to learning new technologies and adapting to changes is essential for long-term success
`

// Candidate is a registered candidate. ID never changes once assigned.
type Candidate struct {
	ID     string `json:"id" mapstructure:"id"`
	Name   string `json:"name" mapstructure:"name"`
	Email  string `json:"email" mapstructure:"email"`
	Phone  string `json:"phone" mapstructure:"phone"`
	Resume string `json:"resume" mapstructure:"resume"`
}

// Snapshot is the complete durable state, read and written as one unit.
type Snapshot struct {
	Candidates     []Candidate `json:"users" mapstructure:"users"`
	JobDescription string      `json:"job_description" mapstructure:"job_description"`
}

// Store persists snapshots. Implementations do no locking: two Save calls racing
// on stale snapshots are last-writer-wins.
type Store interface {
	// Load returns the current snapshot or the default one when nothing was saved yet.
	Load(ctx context.Context) (*Snapshot, error)
	// Save replaces the durable snapshot as a whole.
	Save(ctx context.Context, snapshot *Snapshot) error
}

// Config selects and locates a store backend.
type Config struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// Default returns a snapshot with no candidates and the built-in job description.
func Default() *Snapshot {
	return &Snapshot{
		Candidates:     []Candidate{},
		JobDescription: DefaultJobDescription,
	}
}

// FindByID returns the candidate with exactly the given id.
func (s *Snapshot) FindByID(id string) (*Candidate, bool) {
	for i := range s.Candidates {
		if s.Candidates[i].ID == id {
			c := s.Candidates[i]
			return &c, true
		}
	}
	return nil, false
}

// Open builds the store described by cfg. The returned closer must be called on shutdown.
func Open(cfg Config) (Store, func() error, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = defaultPath
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverFile:
		return NewFileStore(afero.NewOsFs(), path), func() error { return nil }, nil
	case DriverSQLite:
		s, err := NewSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}
