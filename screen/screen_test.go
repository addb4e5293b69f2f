package screen

import (
	"image"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/gaze-go/gaze"
	"github.com/khaledhikmat/gaze-go/quiz"
)

type bgr [3]uint8

func pixel(m gocv.Mat, row, col int) bgr {
	return bgr{m.GetUCharAt3(row, col, 0), m.GetUCharAt3(row, col, 1), m.GetUCharAt3(row, col, 2)}
}

var (
	whiteBGR = bgr{255, 255, 255}
	redBGR   = bgr{0, 0, 255}
	greenBGR = bgr{0, 255, 0}
)

func TestRender_Panels(t *testing.T) {
	// Corners of each panel are clear of any text.
	yesCorner := [2]int{Height - 5, 5}
	noCorner := [2]int{Height - 5, Width - 5}

	tests := []struct {
		name string
		view View
		yes  bgr
		no   bgr
	}{
		{"idle", View{Mode: quiz.ModeBeginning, Direction: gaze.DirectionNone}, whiteBGR, whiteBGR},
		{"preview yes", View{Mode: quiz.ModeBeginning, Direction: gaze.DirectionLeft}, redBGR, whiteBGR},
		{"preview no", View{Mode: quiz.ModeAnswering, Question: "q", Direction: gaze.DirectionRight}, whiteBGR, redBGR},
		{"reading hides preview", View{Mode: quiz.ModeReading, Question: "q", Direction: gaze.DirectionLeft}, whiteBGR, whiteBGR},
		{"confirmed no", View{Mode: quiz.ModeAwaiting, Question: "q", Answer: quiz.No, Direction: gaze.DirectionLeft}, whiteBGR, greenBGR},
		{"confirmed yes", View{Mode: quiz.ModeAwaiting, Question: "q", Answer: quiz.Yes}, greenBGR, whiteBGR},
		{"completed", View{Mode: quiz.ModeCompleted, House: quiz.Ravenclaw, Direction: gaze.DirectionLeft}, whiteBGR, whiteBGR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := Render(tt.view)
			defer img.Close()

			if img.Rows() != Height || img.Cols() != Width || img.Channels() != 3 {
				t.Fatalf("unexpected canvas %dx%dx%d", img.Cols(), img.Rows(), img.Channels())
			}
			if got := pixel(img, yesCorner[0], yesCorner[1]); got != tt.yes {
				t.Errorf("yes panel: got %v, want %v", got, tt.yes)
			}
			if got := pixel(img, noCorner[0], noCorner[1]); got != tt.no {
				t.Errorf("no panel: got %v, want %v", got, tt.no)
			}
		})
	}
}

func TestRender_InstructionsAlwaysDrawn(t *testing.T) {
	for _, m := range []quiz.Mode{quiz.ModeBeginning, quiz.ModeReading, quiz.ModeCompleted} {
		img := Render(View{Mode: m, Question: "q", House: quiz.Gryffindor})
		if dark := countDark(img, 0, Height/3, 0, Width/4); dark == 0 {
			t.Errorf("%s: expected instruction text in the top left corner", m)
		}
		img.Close()
	}
}

func TestRender_QuestionOnlyWhileAsking(t *testing.T) {
	tests := []struct {
		mode quiz.Mode
		want bool
	}{
		{quiz.ModeBeginning, false},
		{quiz.ModeReading, true},
		{quiz.ModeAnswering, true},
		{quiz.ModeAwaiting, true},
	}

	for _, tt := range tests {
		img := Render(View{Mode: tt.mode, Question: "Is Moaning Myrtle annoying?", Answer: quiz.Yes})
		got := countDark(img, 0, Height/3, Width/3, 2*Width/3) > 0
		img.Close()

		if got != tt.want {
			t.Errorf("%s: question drawn = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestPanelRect(t *testing.T) {
	yes, no := PanelRect(quiz.Yes), PanelRect(quiz.No)
	if yes.Min.Y != Height/3 || no.Min.Y != Height/3 {
		t.Errorf("panels should start a third of the way down")
	}
	if yes.Max.X != no.Min.X {
		t.Errorf("panels should meet in the middle: %v %v", yes, no)
	}
	if yes.Union(no) != image.Rect(0, Height/3, Width, Height) {
		t.Errorf("panels should cover the lower two thirds: %v", yes.Union(no))
	}
}

func TestViewOf(t *testing.T) {
	s := quiz.NewSession(quiz.DefaultBank[:1], 0, 0, nil)

	v := ViewOf(s, gaze.DirectionLeft)
	if v.Mode != quiz.ModeBeginning || v.Question != "" || v.Direction != gaze.DirectionLeft {
		t.Errorf("unexpected view before start: %+v", v)
	}

	now := time.Unix(0, 0)
	s.Start(now)
	if v = ViewOf(s, gaze.DirectionNone); v.Question != quiz.DefaultBank[0].Text {
		t.Errorf("expected the question text, got %q", v.Question)
	}

	s.Tick(now)
	s.Observe(gaze.DirectionRight)
	s.Tick(now)
	if v = ViewOf(s, gaze.DirectionNone); v.Mode != quiz.ModeAwaiting || v.Answer != quiz.No {
		t.Errorf("expected awaiting with no, got %+v", v)
	}

	s.Next(now)
	if v = ViewOf(s, gaze.DirectionNone); v.House != quiz.Ravenclaw {
		t.Errorf("expected %s, got %+v", quiz.Ravenclaw, v)
	}
}

func TestRemainingCount(t *testing.T) {
	s := quiz.NewSession(quiz.DefaultBank[:2], 0, 0, nil)
	now := time.Unix(0, 0)
	s.Start(now)

	v := ViewOf(s, gaze.DirectionNone)
	if v.Remaining != 1 {
		t.Fatalf("expected one question after the current one, got %d", v.Remaining)
	}

	tests := []struct {
		remaining int
		drawn     bool
	}{
		{1, true},
		{0, false},
	}

	for _, tt := range tests {
		img := Render(View{Mode: quiz.ModeReading, Question: "Q", Remaining: tt.remaining})
		got := countDark(img, 0, 40, Width-200, Width) > 0
		img.Close()
		if got != tt.drawn {
			t.Errorf("remaining %d: drawn = %v, expected %v", tt.remaining, got, tt.drawn)
		}
	}
}

func countDark(img gocv.Mat, rowFrom, rowTo, colFrom, colTo int) int {
	dark := 0
	for r := rowFrom; r < rowTo; r++ {
		for c := colFrom; c < colTo; c++ {
			if img.GetUCharAt3(r, c, 0) < 128 {
				dark++
			}
		}
	}
	return dark
}
