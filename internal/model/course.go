package model

// swagger:model Course
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Subject     string    `json:"subject"`
	Description string    `json:"description,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Teacher     *User     `json:"teacher,omitempty"`
	IsEnrolled  bool      `json:"isEnrolled"`
	Syllabus    []Section `json:"syllabus,omitempty"`
}

type Section struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Order    int       `json:"order"`
	Lectures []Lecture `json:"lectures"`
}

type Lecture struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Order    int    `json:"order"`
	VideoURL string `json:"videoUrl,omitempty"`
	// Duration 秒
	Duration float64 `json:"duration,omitempty"`
	IsFree   bool    `json:"isFree,omitempty"`
}

// LectureProgress 某讲的观看进度，CurrentTime 即续播位置
type LectureProgress struct {
	CourseID    string  `json:"courseId"`
	LectureID   string  `json:"lectureId"`
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
	Completed   bool    `json:"completed"`
}

type SyllabusProgress struct {
	CourseID            string   `json:"courseId"`
	CompletedLectureIDs []string `json:"completedLectures"`
}

type SectionProgress struct {
	SectionID string  `json:"sectionId"`
	Title     string  `json:"title"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// SyllabusView 课程大纲页：章节 + 每章完成度
type SyllabusView struct {
	Course   *Course           `json:"course"`
	Sections []SectionProgress `json:"sections"`
	Done     map[string]bool   `json:"completedLectures"`
	Percent  float64           `json:"percent"`
}
