package server

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/find-the-impostor/internal/topic"
)

// newTestRoom creates a room with n seated players and a fixed topic.
// The reveal timer is set far in the future so tests can advance
// phases deterministically via finishRoleReveal.
func newTestRoom(t *testing.T, n int) *Room {
	t.Helper()

	provider := topic.NewProviderWithTopics([]topic.Topic{
		{Name: "Món nước", Keywords: []string{"Phở bò"}},
	})
	r := newRoom("TEST01", nil, provider, time.Hour, 10)
	for i := 0; i < n; i++ {
		require.NoError(t, r.AddPlayer(nil, fmt.Sprintf("Player%d", i+1)))
	}
	return r
}

// startToHinting starts the game and skips the role reveal delay.
func startToHinting(t *testing.T, r *Room) {
	t.Helper()

	require.NoError(t, r.StartGame(r.Players[0].ID))
	r.finishRoleReveal(r.timerGen)
	require.Equal(t, PhaseHinting, r.Phase)
}

// forceRoles makes the given player the impostor and everyone else civilian.
func forceRoles(r *Room, impostorID string) {
	for _, p := range r.Players {
		if p.ID == impostorID {
			p.Role = RoleImpostor
		} else {
			p.Role = RoleCivilian
		}
	}
}

// submitAllHints walks the hint turn until the room reaches VOTING.
func submitAllHints(t *testing.T, r *Room) {
	t.Helper()

	for i := 0; r.Phase == PhaseHinting; i++ {
		require.Less(t, i, len(r.Players)+1, "hint rotation did not terminate")
		require.NoError(t, r.SubmitHint(r.CurrentTurnID, fmt.Sprintf("hint-%d", i)))
	}
	require.Equal(t, PhaseVoting, r.Phase)
}

func TestAddPlayer_FirstIsHost(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 3)

	assert.True(t, r.Players[0].IsHost)
	assert.False(t, r.Players[1].IsHost)
	assert.False(t, r.Players[2].IsHost)
	assert.NotEmpty(t, r.Players[0].Avatar)
}

func TestAddPlayer_DefaultName(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 0)
	require.NoError(t, r.AddPlayer(nil, "   "))

	assert.Equal(t, "Người chơi", r.Players[0].Name)
}

func TestAddPlayer_RejectedAfterStart(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 3)
	require.NoError(t, r.StartGame(r.Players[0].ID))

	err := r.AddPlayer(nil, "Latecomer")
	assert.ErrorIs(t, err, ErrGameStarted)
	assert.Len(t, r.Players, 3)
}

func TestAddPlayer_RoomFull(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, maxPlayersPerRoom)
	err := r.AddPlayer(nil, "Overflow")
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestUpdateSettings(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 3)

	// Only host may change settings
	err := r.UpdateSettings(r.Players[1].ID, 5)
	assert.ErrorIs(t, err, ErrNotHost)

	require.NoError(t, r.UpdateSettings(r.Players[0].ID, 5))
	assert.Equal(t, 5, r.MaxRounds)

	// Out-of-range values are clamped
	require.NoError(t, r.UpdateSettings(r.Players[0].ID, 0))
	assert.Equal(t, minRounds, r.MaxRounds)
	require.NoError(t, r.UpdateSettings(r.Players[0].ID, 100))
	assert.Equal(t, maxRoundsLimit, r.MaxRounds)

	// Locked once the game starts
	require.NoError(t, r.StartGame(r.Players[0].ID))
	err = r.UpdateSettings(r.Players[0].ID, 3)
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestStartGame_Validation(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 2)

	err := r.StartGame(r.Players[1].ID)
	assert.ErrorIs(t, err, ErrNotHost)

	err = r.StartGame(r.Players[0].ID)
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)

	require.NoError(t, r.AddPlayer(nil, "Player3"))
	require.NoError(t, r.StartGame(r.Players[0].ID))

	err = r.StartGame(r.Players[0].ID)
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestStartGame_AssignsExactlyOneImpostor(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 5)
	require.NoError(t, r.StartGame(r.Players[0].ID))

	assert.Equal(t, PhaseRoleReveal, r.Phase)
	assert.Equal(t, 1, r.CurrentRound)
	assert.Equal(t, "Món nước", r.Topic)
	assert.Equal(t, "Phở bò", r.Keyword)
	assert.NotNil(t, r.findPlayer(r.CurrentTurnID))

	impostors := 0
	for _, p := range r.Players {
		switch p.Role {
		case RoleImpostor:
			impostors++
		case RoleCivilian:
		default:
			t.Fatalf("player %s has no role", p.ID)
		}
	}
	assert.Equal(t, 1, impostors)
}

func TestStartGame_ImpostorAssignmentCoversAllSeats(t *testing.T) {
	t.Parallel()

	seen := make(map[int]bool)
	for i := 0; i < 200; i++ {
		r := newTestRoom(t, 3)
		require.NoError(t, r.StartGame(r.Players[0].ID))
		for idx, p := range r.Players {
			if p.Role == RoleImpostor {
				seen[idx] = true
			}
		}
		if len(seen) == 3 {
			return
		}
	}
	t.Fatalf("impostor assignment never covered all seats: %v", seen)
}

func TestRoleRevealTimer_AdvancesToHinting(t *testing.T) {
	t.Parallel()

	provider := topic.NewProviderWithTopics([]topic.Topic{
		{Name: "Món nước", Keywords: []string{"Phở bò"}},
	})
	r := newRoom("TEST02", nil, provider, 20*time.Millisecond, 10)
	for i := 0; i < 3; i++ {
		require.NoError(t, r.AddPlayer(nil, fmt.Sprintf("Player%d", i+1)))
	}
	require.NoError(t, r.StartGame(r.Players[0].ID))

	assert.Eventually(t, func() bool {
		return r.Snapshot().Phase == string(PhaseHinting)
	}, time.Second, 5*time.Millisecond)
}

func TestRoleRevealTimer_StaleGenerationIgnored(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 3)
	require.NoError(t, r.StartGame(r.Players[0].ID))
	staleGen := r.timerGen

	// Host cancels before the reveal timer fires
	require.NoError(t, r.CancelGame(r.Players[0].ID))
	require.Equal(t, PhaseLobby, r.Phase)

	// The stale timer must not push the lobby into HINTING
	r.finishRoleReveal(staleGen)
	assert.Equal(t, PhaseLobby, r.Phase)

	// A restarted game is unaffected by the old generation either
	require.NoError(t, r.StartGame(r.Players[0].ID))
	r.finishRoleReveal(staleGen)
	assert.Equal(t, PhaseRoleReveal, r.Phase)
}

func TestSubmitHint_TurnOrder(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 4)
	startToHinting(t, r)
	r.CurrentTurnID = r.Players[0].ID

	// Out-of-turn hint is rejected
	err := r.SubmitHint(r.Players[1].ID, "sneaky")
	assert.ErrorIs(t, err, ErrNotYourTurn)

	// Empty hint is rejected and the turn does not advance
	err = r.SubmitHint(r.Players[0].ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyHint)
	assert.Equal(t, r.Players[0].ID, r.CurrentTurnID)

	// Turn walks the join order
	require.NoError(t, r.SubmitHint(r.Players[0].ID, "nóng"))
	assert.Equal(t, r.Players[1].ID, r.CurrentTurnID)
	require.NoError(t, r.SubmitHint(r.Players[1].ID, "sáng"))
	require.NoError(t, r.SubmitHint(r.Players[2].ID, "bò"))
	require.NoError(t, r.SubmitHint(r.Players[3].ID, "nước"))

	assert.Equal(t, PhaseVoting, r.Phase)
}

func TestSubmitHint_SkipsEliminatedSeats(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 4)
	startToHinting(t, r)
	r.Players[1].IsEliminated = true
	r.CurrentTurnID = r.Players[0].ID

	require.NoError(t, r.SubmitHint(r.Players[0].ID, "một"))
	// Seat 1 is eliminated, turn jumps to seat 2
	assert.Equal(t, r.Players[2].ID, r.CurrentTurnID)

	err := r.SubmitHint(r.Players[1].ID, "ghost")
	assert.ErrorIs(t, err, ErrNotYourTurn)

	require.NoError(t, r.SubmitHint(r.Players[2].ID, "hai"))
	require.NoError(t, r.SubmitHint(r.Players[3].ID, "ba"))
	assert.Equal(t, PhaseVoting, r.Phase)
}

func TestCastVote_Validation(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 4)
	startToHinting(t, r)

	// Voting is not open during HINTING
	err := r.CastVote(r.Players[0].ID, r.Players[1].ID)
	assert.ErrorIs(t, err, ErrWrongPhase)

	r.CurrentTurnID = r.Players[0].ID
	submitAllHints(t, r)

	// Unknown target
	err = r.CastVote(r.Players[0].ID, "no-such-player")
	assert.ErrorIs(t, err, ErrInvalidTarget)

	// Double vote
	require.NoError(t, r.CastVote(r.Players[0].ID, r.Players[1].ID))
	err = r.CastVote(r.Players[0].ID, r.Players[2].ID)
	assert.ErrorIs(t, err, ErrAlreadyVoted)
}

func TestCastVote_CivilianEliminatedImpostorWins(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 4)
	startToHinting(t, r)
	forceRoles(r, r.Players[3].ID)
	r.CurrentTurnID = r.Players[0].ID
	submitAllHints(t, r)

	// Everyone piles on the civilian in seat 1
	victim := r.Players[1]
	for _, p := range r.Players {
		require.NoError(t, r.CastVote(p.ID, victim.ID))
	}

	assert.Equal(t, PhaseResult, r.Phase)
	assert.Equal(t, WinnerImpostor, r.Winner)
	assert.True(t, victim.IsEliminated)
	assert.Equal(t, victim.ID, r.EliminatedPlayerID)
	assert.Equal(t, impostorWinPoints, r.Players[3].Score)

	// Vote state is cleared after resolution
	assert.Equal(t, 0, r.SkipVotes)
	for _, p := range r.Players {
		assert.Zero(t, p.VoteCount)
		assert.False(t, p.HasVoted)
	}
}

func TestCastVote_ImpostorEliminatedGoesToGuess(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 4)
	startToHinting(t, r)
	impostor := r.Players[2]
	forceRoles(r, impostor.ID)
	r.CurrentTurnID = r.Players[0].ID
	submitAllHints(t, r)

	for _, p := range r.Players {
		require.NoError(t, r.CastVote(p.ID, impostor.ID))
	}

	assert.Equal(t, PhaseImpostorGuess, r.Phase)
	assert.True(t, impostor.IsEliminated)
	assert.Equal(t, impostor.ID, r.EliminatedPlayerID)

	// Vote state is cleared even though the game is still running
	for _, p := range r.Players {
		assert.Zero(t, p.VoteCount)
		assert.False(t, p.HasVoted)
	}
}

func TestCastVote_TieEliminatesEarliestJoiner(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 4)
	startToHinting(t, r)
	forceRoles(r, r.Players[3].ID)
	r.CurrentTurnID = r.Players[0].ID
	submitAllHints(t, r)

	// Seats 1 and 2 tie with two votes each
	require.NoError(t, r.CastVote(r.Players[0].ID, r.Players[1].ID))
	require.NoError(t, r.CastVote(r.Players[3].ID, r.Players[1].ID))
	require.NoError(t, r.CastVote(r.Players[1].ID, r.Players[2].ID))
	require.NoError(t, r.CastVote(r.Players[2].ID, r.Players[2].ID))

	assert.True(t, r.Players[1].IsEliminated)
	assert.False(t, r.Players[2].IsEliminated)
}

func TestCastVote_SkipMajorityStartsNewRound(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 4)
	startToHinting(t, r)
	forceRoles(r, r.Players[3].ID)
	r.CurrentTurnID = r.Players[0].ID
	submitAllHints(t, r)

	// Two skips out of four active players reach the threshold
	require.NoError(t, r.CastVote(r.Players[0].ID, "skip"))
	require.NoError(t, r.CastVote(r.Players[1].ID, "skip"))
	require.NoError(t, r.CastVote(r.Players[2].ID, r.Players[3].ID))
	require.NoError(t, r.CastVote(r.Players[3].ID, r.Players[0].ID))

	assert.Equal(t, PhaseHinting, r.Phase)
	assert.Equal(t, 2, r.CurrentRound)
	assert.Equal(t, r.Players[0].ID, r.CurrentTurnID)
	for _, p := range r.Players {
		assert.False(t, p.IsEliminated)
		assert.Empty(t, p.Hint)
		assert.Zero(t, p.VoteCount)
		assert.False(t, p.HasVoted)
	}
}

func TestCastVote_SkipOnFinalRoundImpostorWins(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 3)
	require.NoError(t, r.UpdateSettings(r.Players[0].ID, 1))
	startToHinting(t, r)
	forceRoles(r, r.Players[2].ID)
	r.CurrentTurnID = r.Players[0].ID
	submitAllHints(t, r)

	// Everyone skips on the last allowed round
	for _, p := range r.Players {
		require.NoError(t, r.CastVote(p.ID, "skip"))
	}

	assert.Equal(t, PhaseResult, r.Phase)
	assert.Equal(t, WinnerImpostor, r.Winner)
	assert.Equal(t, impostorWinPoints, r.Players[2].Score)
}

func TestImpostorGuess(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (*Room, *Player) {
		r := newTestRoom(t, 4)
		startToHinting(t, r)
		impostor := r.Players[1]
		forceRoles(r, impostor.ID)
		r.CurrentTurnID = r.Players[0].ID
		submitAllHints(t, r)
		for _, p := range r.Players {
			require.NoError(t, r.CastVote(p.ID, impostor.ID))
		}
		require.Equal(t, PhaseImpostorGuess, r.Phase)
		return r, impostor
	}

	t.Run("correct guess ignores case and whitespace", func(t *testing.T) {
		t.Parallel()
		r, impostor := setup(t)

		require.NoError(t, r.ImpostorGuess(impostor.ID, "  PHỞ BÒ "))

		assert.Equal(t, PhaseResult, r.Phase)
		assert.Equal(t, WinnerImpostor, r.Winner)
		assert.Equal(t, "  PHỞ BÒ ", r.LastGuess)
		assert.Equal(t, impostorWinPoints, impostor.Score)
	})

	t.Run("wrong guess gives surviving civilians the win", func(t *testing.T) {
		t.Parallel()
		r, impostor := setup(t)

		require.NoError(t, r.ImpostorGuess(impostor.ID, "Bún chả"))

		assert.Equal(t, PhaseResult, r.Phase)
		assert.Equal(t, WinnerCivilians, r.Winner)
		assert.Zero(t, impostor.Score)
		for _, p := range r.Players {
			if p.Role == RoleCivilian {
				assert.Equal(t, civilianWinPoints, p.Score)
			}
		}
	})

	t.Run("only the impostor may guess", func(t *testing.T) {
		t.Parallel()
		r, impostor := setup(t)

		civilian := r.Players[0]
		if civilian.ID == impostor.ID {
			civilian = r.Players[2]
		}
		err := r.ImpostorGuess(civilian.ID, "Phở bò")
		assert.ErrorIs(t, err, ErrNotImpostor)
	})
}

func TestCancelGame(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 3)

	// Nothing to cancel in the lobby
	err := r.CancelGame(r.Players[0].ID)
	assert.ErrorIs(t, err, ErrWrongPhase)

	require.NoError(t, r.StartGame(r.Players[0].ID))
	r.Players[1].Score = 7

	err = r.CancelGame(r.Players[1].ID)
	assert.ErrorIs(t, err, ErrNotHost)

	require.NoError(t, r.CancelGame(r.Players[0].ID))
	assert.Equal(t, PhaseLobby, r.Phase)
	assert.Empty(t, r.Topic)
	assert.Empty(t, r.Keyword)
	assert.Zero(t, r.CurrentRound)
	for _, p := range r.Players {
		assert.Equal(t, RoleNone, p.Role)
	}
	// Scores survive the cancel
	assert.Equal(t, 7, r.Players[1].Score)
}

func TestPlayAgain_KeepsPlayersAndScores(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 3)
	startToHinting(t, r)
	impostor := r.Players[2]
	forceRoles(r, impostor.ID)
	r.CurrentTurnID = r.Players[0].ID
	submitAllHints(t, r)
	for _, p := range r.Players {
		require.NoError(t, r.CastVote(p.ID, impostor.ID))
	}
	require.NoError(t, r.ImpostorGuess(impostor.ID, "Phở bò"))
	require.Equal(t, PhaseResult, r.Phase)

	// Any player may restart, not only the host
	require.NoError(t, r.PlayAgain(r.Players[1].ID))

	assert.Equal(t, PhaseLobby, r.Phase)
	assert.Len(t, r.Players, 3)
	assert.Equal(t, impostorWinPoints, impostor.Score)
	for _, p := range r.Players {
		assert.Equal(t, RoleNone, p.Role)
		assert.False(t, p.IsEliminated)
		assert.Empty(t, p.Hint)
	}

	// The same keyword is not dealt again while alternatives remain
	assert.Contains(t, r.usedKeywords, "Phở bò")
}

func TestRemovePlayer_HostHandoff(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 3)
	require.False(t, r.RemovePlayer(r.Players[0].ID))

	assert.Len(t, r.Players, 2)
	assert.True(t, r.Players[0].IsHost)
}

func TestRemovePlayer_LastPlayerEmptiesRoom(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 1)
	assert.True(t, r.RemovePlayer(r.Players[0].ID))
	assert.Empty(t, r.Players)
}

func TestRemovePlayer_ImpostorLeavesCiviliansWin(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 4)
	startToHinting(t, r)
	impostor := r.Players[2]
	forceRoles(r, impostor.ID)

	require.False(t, r.RemovePlayer(impostor.ID))

	assert.Equal(t, PhaseResult, r.Phase)
	assert.Equal(t, WinnerCivilians, r.Winner)
	for _, p := range r.Players {
		assert.Equal(t, civilianWinPoints, p.Score)
	}
}

func TestRemovePlayer_TurnHolderLeavesTurnAdvances(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 4)
	startToHinting(t, r)
	forceRoles(r, r.Players[3].ID)
	r.CurrentTurnID = r.Players[1].ID

	require.False(t, r.RemovePlayer(r.Players[1].ID))

	assert.Equal(t, PhaseHinting, r.Phase)
	assert.Equal(t, r.Players[1].ID, r.CurrentTurnID) // seat shifted, former seat 2
	assert.Len(t, r.Players, 3)
}

func TestRemovePlayer_VotingDeadlockAvoided(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 4)
	startToHinting(t, r)
	impostor := r.Players[3]
	forceRoles(r, impostor.ID)
	r.CurrentTurnID = r.Players[0].ID
	submitAllHints(t, r)

	// Three of four have voted for the impostor, the last one disconnects
	require.NoError(t, r.CastVote(r.Players[0].ID, impostor.ID))
	require.NoError(t, r.CastVote(r.Players[1].ID, impostor.ID))
	require.NoError(t, r.CastVote(impostor.ID, r.Players[0].ID))

	require.False(t, r.RemovePlayer(r.Players[2].ID))

	// The round resolves instead of waiting for the missing vote
	assert.Equal(t, PhaseImpostorGuess, r.Phase)
	assert.True(t, impostor.IsEliminated)
}

func TestSnapshot_ReflectsRoomState(t *testing.T) {
	t.Parallel()

	r := newTestRoom(t, 3)
	require.NoError(t, r.StartGame(r.Players[0].ID))

	snap := r.Snapshot()
	assert.Equal(t, "TEST01", snap.RoomID)
	assert.Equal(t, string(PhaseRoleReveal), snap.Phase)
	assert.Len(t, snap.Players, 3)
	assert.Equal(t, 1, snap.CurrentRound)
	assert.Equal(t, 10, snap.MaxRounds)
	assert.Equal(t, "Phở bò", snap.Keyword)
	assert.True(t, snap.Players[0].IsHost)
}
