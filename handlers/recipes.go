package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Rubl1313-cmyk/nutrybudy-bot/services"
)

var dietLabels = map[string]string{
	"regular":    "🥩 Regular",
	"vegetarian": "🥦 Vegetarian",
	"vegan":      "🌱 Vegan",
	"keto":       "🥑 Keto",
}

var difficultyLabels = map[string]string{
	"quick":  "⚡ Quick, under 20 minutes",
	"normal": "👨‍🍳 Normal",
	"fancy":  "🎩 Something special",
}

func (b *Bot) startRecipes(ctx context.Context, ev Event) {
	if b.requireUser(ev) == nil {
		return
	}
	b.sessions.With(ev.UserID, func(sess *Session) {
		sess.Clear()
		sess.Step = StepRecipeIngredients
	})
	b.send(ev.ChatID, "What ingredients do you have? List them separated by commas.", nil)
}

func (b *Bot) recipeIngredients(ev Event, sess *Session) {
	ingredients := strings.TrimSpace(ev.Text)
	if ingredients == "" {
		b.send(ev.ChatID, "Please list at least one ingredient.", nil)
		return
	}
	sess.Set("ingredients", ingredients)
	sess.Step = StepRecipeDiet
	b.send(ev.ChatID, "Any dietary preference?", dietKeyboard())
}

func dietKeyboard() *Keyboard {
	return &Keyboard{Inline: [][]Button{
		{
			{Label: dietLabels["regular"], Action: "diet:regular"},
			{Label: dietLabels["vegetarian"], Action: "diet:vegetarian"},
		},
		{
			{Label: dietLabels["vegan"], Action: "diet:vegan"},
			{Label: dietLabels["keto"], Action: "diet:keto"},
		},
	}}
}

func (b *Bot) recipeCallback(ctx context.Context, ev Event, sess *Session, verb, arg string) {
	switch sess.Step {
	case StepRecipeDiet:
		if verb != "diet" {
			return
		}
		if _, ok := dietLabels[arg]; !ok {
			return
		}
		sess.Set("diet", arg)
		sess.Step = StepRecipeDifficulty
		b.edit(ev.ChatID, ev.MessageID, "How much effort?", &Keyboard{Inline: [][]Button{
			{{Label: difficultyLabels["quick"], Action: "level:quick"}},
			{{Label: difficultyLabels["normal"], Action: "level:normal"}},
			{{Label: difficultyLabels["fancy"], Action: "level:fancy"}},
		}})

	case StepRecipeDifficulty:
		if verb != "level" {
			return
		}
		if _, ok := difficultyLabels[arg]; !ok {
			return
		}
		sess.Set("level", arg)
		b.generateRecipe(ctx, ev, sess)
	}
}

func (b *Bot) generateRecipe(ctx context.Context, ev Event, sess *Session) {
	user := b.requireUser(ev)
	if user == nil {
		sess.Clear()
		return
	}

	prompt := fmt.Sprintf(
		"Suggest one recipe using some of these ingredients: %s. "+
			"Diet: %s. Effort level: %s. "+
			"The person's goal is to %s weight with a daily target of about %.0f kcal. "+
			"Give the dish name, ingredient amounts, short numbered steps and the "+
			"approximate calories per serving.",
		sess.String("ingredients"), sess.String("diet"), sess.String("level"),
		user.Goal, user.DailyCalorieGoal,
	)
	sess.Clear()

	b.edit(ev.ChatID, ev.MessageID, "🍳 Cooking up an idea...", nil)
	recipe, err := b.text.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, services.ErrAIUnavailable) {
			b.send(ev.ChatID, "Recipe suggestions are not configured on this bot.", mainKeyboard())
			return
		}
		b.log.WithError(err).Warn("recipe generation failed")
		b.send(ev.ChatID, "The recipe service is not answering right now, try again later.", mainKeyboard())
		return
	}
	b.send(ev.ChatID, recipe, mainKeyboard())
}
