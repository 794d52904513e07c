package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/kamusis/cinerec/internal/catalog"
	"github.com/kamusis/cinerec/internal/enrich"
	"github.com/kamusis/cinerec/internal/logging"
	"github.com/kamusis/cinerec/internal/recommend"
)

var (
	flagRecK       int
	flagRecDetails bool
	flagRecJSON    bool
	flagRecFilter  string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <title>",
	Short: "Show movies similar to a title",
	Long: `Rank every catalog movie by cosine similarity of its feature text to the
given title (matched case-insensitively) and print the closest ones.

--details adds TMDb information, the main cast, IMDb review sentiment and
posters; it needs a TMDb API key. --filter takes a CEL expression over
item.title, item.score, item.director, item.genres and item.actors, e.g.

  cinerec recommend avatar --filter 'item.score > 0.2 && !item.title.startsWith("star")'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecommend,
}

func init() {
	recommendCmd.Flags().IntVar(&flagRecK, "k", 0, "Number of recommendations (default: top_k from config)")
	recommendCmd.Flags().BoolVar(&flagRecDetails, "details", false, "Fetch TMDb details, cast, reviews and posters")
	recommendCmd.Flags().BoolVar(&flagRecJSON, "json", false, "Print JSON instead of text")
	recommendCmd.Flags().StringVar(&flagRecFilter, "filter", "", "CEL expression candidates must satisfy")
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	title := strings.Join(args, " ")
	filter, err := recommend.CompileFilter(flagRecFilter)
	if err != nil {
		return err
	}
	q := recommend.Query{Title: title, K: flagRecK, Filter: filter}

	engine, err := openEngine(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	if !flagRecDetails {
		res, err := engine.Recommend(q)
		if err != nil {
			return notFoundOr(err)
		}
		if flagRecJSON {
			return printJSON(res)
		}
		printRecommendations(res)
		return nil
	}

	svc := &enrich.Service{
		Recommender: engine,
		Reviews:     newScraper(cfg),
		Classifier:  newClassifier(cfg),
	}
	client, cleanup, err := newTMDb(cmd.Context(), cfg, apiKey())
	defer cleanup()
	if err != nil {
		logging.Debug().Err(err).Msg("TMDb disabled")
		svc.MoviesErr = err
	} else {
		svc.Movies = client
	}
	page, err := svc.Page(cmd.Context(), q)
	if err != nil {
		return notFoundOr(err)
	}
	if flagRecJSON {
		return printJSON(page)
	}
	printPage(page)
	return nil
}

func notFoundOr(err error) error {
	if recommend.IsNotFound(err) {
		return errors.New(recommend.NotFoundMessage)
	}
	return err
}

func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRecommendations(res recommend.Result) {
	printSection("Similar to " + catalog.DisplayTitle(res.Title))
	if len(res.Recommendations) == 0 {
		printMiss("", "no recommendations")
		return
	}
	for i, r := range res.Recommendations {
		fmt.Fprintf(stdout, "  %2d. %-40s %.3f\n", i+1, catalog.DisplayTitle(r.Title), r.Score)
	}
}

func printPage(p *enrich.Page) {
	heading := catalog.DisplayTitle(p.Title)
	if p.Movie != nil {
		heading = p.Movie.Title
	}
	printSection(heading)

	if m := p.Movie; m != nil {
		printBullet("Movie Information")
		field := func(label, value string) {
			if value != "" {
				fmt.Fprintf(stdout, "  %-13s %s\n", label+":", value)
			}
		}
		field("Overview", m.Overview)
		field("Release Date", m.ReleaseDate)
		field("Runtime", m.Runtime)
		if m.Rating > 0 {
			field("Rating", fmt.Sprintf("%.1f/10", m.Rating))
		}
		field("Vote Count", m.Votes)
		field("Genres", strings.Join(m.Genres, ", "))
		field("Poster", m.PosterURL)
	}

	if len(p.Cast) > 0 {
		printBullet("Main Cast")
		for _, c := range p.Cast {
			if c.Character != "" {
				fmt.Fprintf(stdout, "  %s as %s\n", c.Name, c.Character)
			} else {
				fmt.Fprintf(stdout, "  %s\n", c.Name)
			}
		}
	}

	if p.Movie != nil && p.Movie.IMDbID != "" {
		printBullet("Reviews")
		if len(p.Reviews) == 0 {
			printInfo("", "No reviews found for this movie.")
		} else {
			s := p.Sentiment
			fmt.Fprintf(stdout, "  Total: %d   Positive: %d (%.1f%%)   Negative: %d (%.1f%%)   Neutral: %d\n",
				s.Total, s.Positive, s.PositivePct, s.Negative, s.NegativePct, s.Neutral)
			for i, r := range p.Reviews {
				fmt.Fprintf(stdout, "\n  Person %d - %s Review\n    %s\n", i+1, r.Sentiment, r.Excerpt())
			}
		}
	}

	printBullet("Similar Movies You Might Like")
	for i, r := range p.Recommendations {
		line := fmt.Sprintf("  %2d. %s", i+1, r.Display)
		if r.PosterURL != "" {
			line += "  " + r.PosterURL
		}
		fmt.Fprintln(stdout, line)
	}

	if len(p.Warnings) > 0 {
		fmt.Fprintln(stdout)
		for _, w := range p.Warnings {
			printWarn("", w)
		}
	}
}
