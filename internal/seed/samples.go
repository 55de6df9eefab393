package seed

import "github.com/dukerupert/happyloop/internal/model"

func dailyTask(name, description, icon string, points int) model.Task {
	return model.Task{
		Name:             name,
		Description:      description,
		Icon:             icon,
		Points:           points,
		Frequency:        model.FrequencyDaily,
		VerificationType: model.VerificationNone,
		Enabled:          true,
	}
}

func weeklyTask(name, description, icon string, points int) model.Task {
	t := dailyTask(name, description, icon, points)
	t.Frequency = model.FrequencyWeekly
	t.VerificationType = model.VerificationPhoto
	return t
}

// SampleTasks is the starter catalog added to an empty task list.
var SampleTasks = []model.Task{
	dailyTask("Brush Teeth", "Brush for 2 minutes", "🦷", 5),
	dailyTask("Make Bed", "Smooth sheets and arrange pillows", "🛏️", 5),
	dailyTask("Tidy Room", "Put away toys and clothes", "🧹", 10),
	dailyTask("Read Book", "Read for 15 minutes", "📚", 10),
	dailyTask("Homework", "Complete assigned homework", "✏️", 15),
	dailyTask("Set Table", "Set the table for dinner", "🍽️", 5),
	dailyTask("Clear Table", "Clear your plate after eating", "🍽️", 5),
	dailyTask("Walk Dog", "Take the dog for a walk", "🐕", 15),
	weeklyTask("Water Plants", "Water the houseplants", "🌱", 10),
	weeklyTask("Clean Bathroom", "Help clean the bathroom sink/counter", "🛁", 20),
}

// legacyTasks is the smaller catalog used by Reseed when no tasks exist.
var legacyTasks = []model.Task{
	dailyTask("Brush Teeth", "Morning and night", "🦷", 5),
	dailyTask("Make Bed", "Every morning", "🛏️", 10),
	dailyTask("Homework", "Complete assigned homework", "📚", 25),
	weeklyTask("Clean Room", "Tidy up room", "🧹", 30),
	dailyTask("Feed Pet", "Give food and water to pet", "🐾", 15),
}

// SampleRewards are ensured to exist when populating a demo account.
var SampleRewards = []model.Reward{
	{Name: "Extra Screen Time", Description: "30 minutes extra screen time", Image: "📱", PointCost: 50, Available: true},
	{Name: "Small Toy", Description: "Choose a small toy from the shop", Image: "🧸", PointCost: 100, Available: true},
	{Name: "Book Voucher", Description: "$10 book voucher", Image: "📚", PointCost: 150, Available: true},
	{Name: "Movie Night Choice", Description: "Choose the movie for family night", Image: "🎬", PointCost: 75, Available: true},
}

type sampleKid struct {
	Name   string
	Age    int
	Avatar string
}

var demoKids = []sampleKid{
	{Name: "Maya", Age: 7, Avatar: "👧"},
	{Name: "Arjun", Age: 12, Avatar: "👦"},
}

var legacyKids = []sampleKid{
	{Name: "Sample Kid 1", Age: 8, Avatar: "🤖"},
	{Name: "Sample Kid 2", Age: 10, Avatar: "🚀"},
}
