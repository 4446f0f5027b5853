package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"quizforge"

	"github.com/joho/godotenv"
)

func main() {
	var (
		topic        = flag.String("topic", "", "Quiz topic (required unless -document is given)")
		numQuestions = flag.Int("questions", 10, "Number of questions to generate")
		questionType = flag.String("type", "Multiple Choice", "Question type (Multiple Choice, Fill in the Blank, Mixed)")
		difficulty   = flag.String("difficulty", "Medium", "Difficulty level (Easy, Medium, Hard)")
		duration     = flag.Int("duration", 10, "Time limit in minutes")
		language     = flag.String("language", "", "Target language for the quiz (empty for source language)")
		document     = flag.String("document", "", "Path to a source document; the quiz is derived exclusively from it")
		outputFile   = flag.String("output", "", "Output file for quiz JSON (default: stdout)")
		dbPath       = flag.String("db", "./quizforge.db", "Path to the history database")
		apiKey       = flag.String("api-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		playMode     = flag.Bool("play", false, "Take the quiz interactively under the time limit")
		showHistory  = flag.Bool("history", false, "List stored quiz results and exit")
		search       = flag.String("search", "", "Filter -history output by topic or tag")
		verbose      = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	quizforge.SetVerbose(*verbose)

	// .env is optional; flags and real env vars win.
	if err := godotenv.Load(); err == nil {
		quizforge.VerboseLog("Loaded configuration from .env")
	}

	if *showHistory {
		listHistory(*dbPath, *search)
		return
	}

	settings := quizforge.QuizSettings{
		Topic:           *topic,
		NumQuestions:    *numQuestions,
		QuestionType:    quizforge.SettingsQuestionType(*questionType),
		Difficulty:      quizforge.Difficulty(*difficulty),
		DurationMinutes: *duration,
		Language:        *language,
	}

	if *document != "" {
		data, err := os.ReadFile(*document)
		if err != nil {
			log.Fatalf("Failed to read document: %v", err)
		}
		settings.DocumentContent = base64.StdEncoding.EncodeToString(data)
		settings.Topic = filepath.Base(*document)
	}

	if settings.Topic == "" {
		log.Fatal("Topic is required. Use -topic or -document.")
	}

	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
		if *apiKey == "" {
			log.Fatal("OpenAI API key is required. Use -api-key flag or set OPENAI_API_KEY environment variable.")
		}
	}

	generator := quizforge.NewQuizGenerator(quizforge.NewOpenAIProvider(*apiKey))

	runID := fmt.Sprintf("%d", time.Now().Unix())
	logger, err := quizforge.NewLLMLogger(runID, settings)
	if err != nil {
		log.Printf("Failed to create LLM logger: %v", err)
		// Continue without transcript logging rather than failing
	} else {
		generator.SetLogger(logger)
		defer logger.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	quiz, err := generator.GenerateQuiz(ctx, settings)
	if err != nil {
		log.Fatalf("Quiz generation failed, please try again: %v", err)
	}

	if *playMode {
		playQuiz(*quiz, settings, *apiKey, *dbPath)
		return
	}

	output, err := json.MarshalIndent(quiz, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal quiz: %v", err)
	}

	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, output, 0644); err != nil {
			log.Fatalf("Failed to write output file: %v", err)
		}
		log.Printf("Quiz saved to: %s", *outputFile)
	} else {
		fmt.Println(string(output))
	}
}

func openHistory(dbPath string) (*quizforge.DB, *quizforge.HistoryStore) {
	db, err := quizforge.OpenDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open history database: %v", err)
	}
	if err := db.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}
	history, err := quizforge.NewHistoryStore(db)
	if err != nil {
		log.Fatalf("Failed to load history: %v", err)
	}
	return db, history
}

func listHistory(dbPath, query string) {
	db, history := openHistory(dbPath)
	defer db.CloseDB()

	folders := make(map[string]string)
	for _, f := range history.Folders() {
		folders[f.ID] = f.Name
	}

	results := history.Search(query)
	quizforge.SortResults(results, quizforge.SortByDate)

	if len(results) == 0 {
		fmt.Println("No quiz results stored.")
		return
	}

	for _, r := range results {
		line := fmt.Sprintf("%s  %-30s  %d/%d  %s  [%s]",
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.Quiz.Topic,
			r.Score, len(r.Quiz.Questions),
			formatDuration(r.TimeTaken),
			folders[r.FolderID])
		if len(r.Tags) > 0 {
			line += "  #" + strings.Join(r.Tags, " #")
		}
		fmt.Println(line)
	}
}

func playQuiz(quiz quizforge.Quiz, settings quizforge.QuizSettings, apiKey, dbPath string) {
	fmt.Printf("🎯 Starting quiz: %s\n", quiz.Topic)
	fmt.Printf("📝 Questions: %d, Difficulty: %s\n", len(quiz.Questions), settings.Difficulty)
	fmt.Printf("⏱  Time limit: %d minutes\n", settings.DurationMinutes)
	fmt.Println("Commands: answer (A-D or text), /next, /prev, /goto N, /skip, /pause, /resume, /translate LANG, /submit")
	fmt.Println()

	session := quizforge.NewSession(quiz, settings)
	provider := quizforge.NewOpenAIProvider(apiKey)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	countdown := quizforge.NewCountdown()
	defer func() { countdown.Stop() }()
	tick := countdown.C

	showQuestion(session)

	var result *quizforge.QuizResult
	for result == nil {
		select {
		case <-tick:
			result = session.Tick()
			if result != nil {
				fmt.Println("\n⏰ Time is up!")
			}

		case line, ok := <-lines:
			if !ok {
				result = session.Submit()
				break
			}
			wasPaused := session.State() == quizforge.StatePaused
			result = handleCommand(session, provider, line)
			// The ticker is cancelled while paused and replaced on resume, so
			// a stale tick can never reach a suspended session.
			if !wasPaused && session.State() == quizforge.StatePaused {
				countdown.Stop()
				tick = nil
			}
			if wasPaused && session.State() == quizforge.StateActive {
				countdown = quizforge.NewCountdown()
				tick = countdown.C
			}
		}
	}

	countdown.Stop()
	showResult(result)

	db, history := openHistory(dbPath)
	defer db.CloseDB()
	if err := history.Add(*result); err != nil {
		log.Printf("Failed to store result: %v", err)
		return
	}
	fmt.Printf("💾 Result saved to history (%s)\n", result.ID)
}

// handleCommand applies one line of user input to the session and returns the
// result if the command submitted it.
func handleCommand(session *quizforge.Session, provider quizforge.Translator, line string) *quizforge.QuizResult {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if !strings.HasPrefix(line, "/") {
		if session.State() == quizforge.StatePaused {
			fmt.Println("Session is paused. /resume to continue.")
			return nil
		}
		recordAnswer(session, line)
		return nil
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/next":
		session.Goto(session.CurrentIndex() + 1)
		showQuestion(session)
	case "/prev":
		session.Goto(session.CurrentIndex() - 1)
		showQuestion(session)
	case "/goto":
		if len(fields) < 2 {
			fmt.Println("Usage: /goto N")
			return nil
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			fmt.Println("Usage: /goto N")
			return nil
		}
		session.Goto(n - 1)
		showQuestion(session)
	case "/skip":
		session.Skip()
		showQuestion(session)
	case "/pause":
		session.Pause()
		fmt.Printf("⏸  Paused with %s left. /resume to continue.\n", formatDuration(session.TimeLeft()))
	case "/resume":
		session.Resume()
		showQuestion(session)
	case "/translate":
		lang := session.Settings().Language
		if len(fields) > 1 {
			lang = strings.Join(fields[1:], " ")
		}
		if lang == "" {
			fmt.Println("Usage: /translate LANGUAGE")
			return nil
		}
		translate(session, provider, lang)
	case "/submit":
		return session.Submit()
	default:
		fmt.Printf("Unknown command: %s\n", fields[0])
	}
	return nil
}

func recordAnswer(session *quizforge.Session, line string) {
	question := session.CurrentQuestion()
	if question.Type == quizforge.TypeMultipleChoice {
		upper := strings.ToUpper(line)
		idx := strings.Index("ABCD", upper)
		if len(upper) != 1 || idx < 0 {
			fmt.Println("Please answer A, B, C or D")
			return
		}
		session.Answer(question.Options[idx])
	} else {
		session.Answer(line)
	}
	fmt.Printf("✏️  Answer recorded. (%s left)\n", formatDuration(session.TimeLeft()))
}

func translate(session *quizforge.Session, provider quizforge.Translator, language string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := session.Translate(ctx, provider, language); err != nil {
		fmt.Printf("Translation unavailable, please try again: %v\n", err)
		return
	}
	overlay := session.Translation()
	if overlay == nil {
		return
	}
	fmt.Printf("\n🌐 %s\n", overlay[0])
	for i, option := range overlay[1:] {
		fmt.Printf("   %c) %s\n", 'A'+i, option)
	}
	fmt.Println()
}

func showQuestion(session *quizforge.Session) {
	if session.State() == quizforge.StateSubmitted {
		return
	}
	question := session.CurrentQuestion()
	answers := session.Answers()

	fmt.Printf("\nQuestion %d/%d (%s left):\n", session.CurrentIndex()+1, len(answers), formatDuration(session.TimeLeft()))
	fmt.Printf("%s\n", question.Text)
	if question.Type == quizforge.TypeMultipleChoice {
		for i, option := range question.Options {
			fmt.Printf("  %c) %s\n", 'A'+i, option)
		}
	} else {
		fmt.Println("  (fill in the blank)")
	}
	if current := answers[session.CurrentIndex()]; current != nil {
		fmt.Printf("  Your answer: %s\n", *current)
	}
	fmt.Println()
}

func showResult(result *quizforge.QuizResult) {
	total := len(result.Quiz.Questions)
	percentage := float64(result.Score) / float64(total) * 100

	fmt.Println("\n🎉 Quiz completed!")
	fmt.Printf("🏆 Score: %d/%d (%.1f%%) in %s\n\n", result.Score, total, percentage, formatDuration(result.TimeTaken))

	for i, question := range result.Quiz.Questions {
		answer := result.UserAnswers[i]
		switch {
		case answer == nil:
			fmt.Printf("⏭  Q%d: unanswered. Correct answer: %s\n", i+1, question.CorrectAnswer)
		case *answer == question.CorrectAnswer:
			fmt.Printf("✅ Q%d: Correct!\n", i+1)
		default:
			fmt.Printf("❌ Q%d: %s. Correct answer: %s\n", i+1, *answer, question.CorrectAnswer)
		}
		if question.Explanation != "" {
			fmt.Printf("   💡 %s\n", question.Explanation)
		}
	}

	fmt.Println()
	if percentage >= 80 {
		fmt.Println("🌟 Excellent work!")
	} else if percentage >= 60 {
		fmt.Println("👍 Good job!")
	} else {
		fmt.Println("📚 Keep studying!")
	}
}

func formatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
