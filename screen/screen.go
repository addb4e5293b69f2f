package screen

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"gocv.io/x/gocv"

	"github.com/khaledhikmat/gaze-go/gaze"
	"github.com/khaledhikmat/gaze-go/quiz"
)

const (
	Width  = 1280
	Height = 360

	instructions = "Press:\nESC to quit\ns to start quiz\nn to next question"
	yesPanel     = "Look left\nfor YES"
	noPanel      = "Look right\nfor NO"
	resultIntro  = "You are assigned to..."
)

var (
	black   = color.RGBA{0, 0, 0, 0}
	preview = color.RGBA{255, 0, 0, 0}
	confirm = color.RGBA{0, 255, 0, 0}
)

// View is the state the quiz screen is drawn from.
type View struct {
	Mode      quiz.Mode
	Question  string
	Direction gaze.Direction
	Answer    quiz.Answer
	House     quiz.House
	// Questions still to come after the current one.
	Remaining int
}

// ViewOf captures the current state of a session.
func ViewOf(s *quiz.Session, d gaze.Direction) View {
	v := View{
		Mode:      s.Mode(),
		Direction: d,
	}

	switch v.Mode {
	case quiz.ModeReading, quiz.ModeAnswering:
		v.Question = s.Current().Text
		v.Remaining = s.Quiz().Remaining()
	case quiz.ModeAwaiting:
		v.Question = s.Current().Text
		v.Remaining = s.Quiz().Remaining()
		v.Answer = s.Quiz().Answer(s.Current().ID)
	case quiz.ModeCompleted:
		v.House, _ = s.Quiz().Result()
	}

	return v
}

// Render draws the quiz screen. The caller owns the returned Mat.
func Render(v View) gocv.Mat {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), Height, Width, gocv.MatTypeCV8UC3)
	drawInstructions(&img)

	switch v.Mode {
	case quiz.ModeBeginning, quiz.ModeAnswering:
		if v.Mode == quiz.ModeAnswering {
			drawQuestion(&img, v.Question)
			drawRemaining(&img, v.Remaining)
		}
		if a, ok := quiz.AnswerFor(v.Direction); ok {
			fillPanel(&img, a, preview)
		}
		drawPanels(&img)
	case quiz.ModeReading:
		drawQuestion(&img, v.Question)
		drawRemaining(&img, v.Remaining)
	case quiz.ModeAwaiting:
		drawQuestion(&img, v.Question)
		drawRemaining(&img, v.Remaining)
		fillPanel(&img, v.Answer, confirm)
		drawPanels(&img)
	case quiz.ModeCompleted:
		drawResult(&img, v.House)
	}

	return img
}

// PanelRect is the lower two thirds half that belongs to an answer.
func PanelRect(a quiz.Answer) image.Rectangle {
	top := Height / 3
	if a == quiz.No {
		return image.Rect(Width/2, top, Width, Height)
	}
	return image.Rect(0, top, Width/2, Height)
}

func fillPanel(img *gocv.Mat, a quiz.Answer, c color.RGBA) {
	if a != quiz.Yes && a != quiz.No {
		return
	}
	gocv.Rectangle(img, PanelRect(a), c, -1)
}

func drawInstructions(img *gocv.Mat) {
	x, y0, dy := Width*3/100, Height*7/100, 25
	for i, line := range strings.Split(instructions, "\n") {
		gocv.PutText(img, line, image.Pt(x, y0+i*dy), gocv.FontHersheySimplex, 0.7, black, 2)
	}
}

func drawQuestion(img *gocv.Mat, question string) {
	y0, dy := int(0.1*Height), 30
	for i, line := range strings.Split(question, "\n") {
		size := gocv.GetTextSize(line, gocv.FontHersheySimplex, 1, 2)
		x := Width/4 + (Width/2-size.X)/2
		gocv.PutText(img, line, image.Pt(x, y0+i*dy), gocv.FontHersheySimplex, 1, black, 2)
	}
}

// drawRemaining counts down the questions in the top right corner.
func drawRemaining(img *gocv.Mat, remaining int) {
	if remaining <= 0 {
		return
	}

	line := fmt.Sprintf("%d more", remaining)
	size := gocv.GetTextSize(line, gocv.FontHersheySimplex, 0.7, 2)
	x := Width - size.X - Width*3/100
	gocv.PutText(img, line, image.Pt(x, Height*7/100), gocv.FontHersheySimplex, 0.7, black, 2)
}

func drawPanels(img *gocv.Mat) {
	drawPanelText(img, yesPanel, 0)
	drawPanelText(img, noPanel, Width/2)
}

func drawPanelText(img *gocv.Mat, text string, left int) {
	for i, line := range strings.Split(text, "\n") {
		size := gocv.GetTextSize(line, gocv.FontHersheySimplex, 2, 3)
		x := left + (Width/2-size.X)/2
		y0 := Height/3 + (2*(Height/3)+size.Y)/2 - size.Y
		gocv.PutText(img, line, image.Pt(x, y0+i*(size.Y+30)), gocv.FontHersheySimplex, 2, black, 3)
	}
}

func drawResult(img *gocv.Mat, house quiz.House) {
	size := gocv.GetTextSize(resultIntro, gocv.FontHersheySimplex, 1, 2)
	x := Width/4 + (Width/2-size.X)/2
	y := int(0.1*Height) + size.Y
	gocv.PutText(img, resultIntro, image.Pt(x, y), gocv.FontHersheySimplex, 1, black, 2)

	line := strings.ToUpper(string(house))
	size = gocv.GetTextSize(line, gocv.FontHersheySimplex, 2, 3)
	x = (Width - size.X) / 2
	y = int(0.9*Height) - size.Y
	gocv.PutText(img, line, image.Pt(x, y), gocv.FontHersheySimplex, 2, black, 3)
}
